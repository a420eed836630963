package fingerprint

// MaskingScript overrides the environment properties that bot-mitigation
// scripts probe for. It must be installed (EvalOnNewDocument) before the
// first navigation of an attempt; overrides installed later are invisible
// to scripts that ran during page load.
//
// It layers on top of the go-rod/stealth baseline: the two overlap on
// navigator.webdriver but this script additionally pins hardware and
// connection properties to common desktop values and hides the overrides
// from Function.prototype.toString introspection.
const MaskingScript = `(() => {
	const patch = (obj, prop, value) => {
		try {
			Object.defineProperty(obj, prop, { get: () => value, configurable: true });
		} catch (e) {}
	};

	// Automation markers.
	patch(Navigator.prototype, 'webdriver', undefined);
	delete window.cdc_adoQpoasnfa76pfcZLmcfl_Array;
	delete window.cdc_adoQpoasnfa76pfcZLmcfl_Promise;
	delete window.cdc_adoQpoasnfa76pfcZLmcfl_Symbol;
	delete window.__driver_evaluate;
	delete window.__webdriver_evaluate;
	delete window.__selenium_evaluate;

	// Headless Chrome ships an empty plugin list.
	patch(Navigator.prototype, 'plugins', [
		{ name: 'PDF Viewer', filename: 'internal-pdf-viewer' },
		{ name: 'Chrome PDF Viewer', filename: 'internal-pdf-viewer' },
		{ name: 'Chromium PDF Viewer', filename: 'internal-pdf-viewer' },
	]);

	// Common desktop hardware profile.
	patch(Navigator.prototype, 'hardwareConcurrency', 8);
	patch(Navigator.prototype, 'deviceMemory', 8);
	patch(Navigator.prototype, 'connection', {
		effectiveType: '4g', rtt: 50, downlink: 10, saveData: false,
	});

	// Match the declared central-European timezone (UTC+1).
	const realGetTimezoneOffset = Date.prototype.getTimezoneOffset;
	Date.prototype.getTimezoneOffset = function () { return -60; };

	// Hide the patched functions from toString introspection.
	const nativeToString = Function.prototype.toString;
	const patched = new Set([Date.prototype.getTimezoneOffset]);
	Function.prototype.toString = function () {
		if (patched.has(this)) {
			return nativeToString.call(realGetTimezoneOffset);
		}
		return nativeToString.call(this);
	};
	patched.add(Function.prototype.toString);
})();`
