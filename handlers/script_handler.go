package handlers

import "net/http"

// trackingScript is the client-side payload served at /track.js. It sends a
// pageview on load, heartbeats every 15 seconds while the tab is visible,
// and an end-of-session beacon on pagehide.
const trackingScript = `(function () {
  "use strict";
  var script = document.currentScript;
  var endpoint = script.getAttribute("data-endpoint") || script.src.replace(/track\.js.*$/, "collect");
  var site = script.getAttribute("data-site") || location.hostname;

  var sid = "";
  try {
    sid = sessionStorage.getItem("_ps_sid") || "";
    if (!sid) {
      sid = Math.random().toString(36).slice(2) + Date.now().toString(36);
      sessionStorage.setItem("_ps_sid", sid);
    }
  } catch (e) { /* storage blocked; beacons still count views */ }

  function send(type, extra) {
    var payload = {
      site: site,
      url: location.href,
      title: document.title,
      referrer: document.referrer,
      w: window.innerWidth,
      sw: screen.width,
      sh: screen.height,
      lang: navigator.language,
      sid: sid,
      type: type
    };
    if (extra) for (var k in extra) payload[k] = extra[k];
    var body = JSON.stringify(payload);
    if (navigator.sendBeacon) {
      navigator.sendBeacon(endpoint, body);
    } else {
      var img = new Image(1, 1);
      img.src = endpoint + "?site=" + encodeURIComponent(site) +
        "&url=" + encodeURIComponent(location.href) +
        "&referrer=" + encodeURIComponent(document.referrer) +
        "&w=" + window.innerWidth + "&sid=" + encodeURIComponent(sid) +
        "&type=" + type;
    }
  }

  send("pageview");

  setInterval(function () {
    if (!document.hidden) send("heartbeat");
  }, 15000);

  addEventListener("pagehide", function () {
    send("session_end");
  });

  window.picostats = {
    event: function (name, data) {
      send("event", { event_type: "custom", event_name: name, event_data: JSON.stringify(data || {}) });
    }
  };
})();
`

// TrackScript serves the static tracking script with a long cache lifetime.
func TrackScript() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write([]byte(trackingScript))
	}
}
