package http

const audienceHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>marquee audience</title>
<style>
  body { margin: 0; height: 100vh; display: flex; align-items: center; justify-content: center;
         font-family: system-ui, sans-serif; background: #111; color: #eee; }
  #slide { font-size: 6vw; }
  #step { font-size: 2vw; opacity: .6; }
  #pointer { position: fixed; width: 14px; height: 14px; border-radius: 50%;
             background: #f33; display: none; transform: translate(-50%, -50%); }
</style>
</head>
<body>
<div>
  <div id="slide">waiting for presenter</div>
  <div id="step"></div>
</div>
<div id="pointer"></div>
<script>
  const params = new URLSearchParams(location.search);
  const topic = params.get("topic") || "";
  const q = (peer) => "?peer=" + encodeURIComponent(peer) + (topic ? "&topic=" + encodeURIComponent(topic) : "");
  const es = new EventSource("/channel/events" + (topic ? "?topic=" + encodeURIComponent(topic) : ""));
  const pointer = document.getElementById("pointer");

  es.addEventListener("ping", (e) => {
    fetch("/channel/messages" + q(e.data), { method: "POST", body: JSON.stringify({ type: "sync-request" }) });
  });
  es.onmessage = (e) => {
    const msg = JSON.parse(e.data);
    switch (msg.type) {
    case "navigate":
      document.getElementById("slide").textContent = "Slide " + (msg.slideIndex + 1);
      document.getElementById("step").textContent = "step " + msg.activeStep;
      break;
    case "pointer":
      pointer.style.display = msg.visible ? "block" : "none";
      pointer.style.left = (msg.x * 100) + "vw";
      pointer.style.top = (msg.y * 100) + "vh";
      break;
    case "exit":
      es.close();
      window.close();
      document.getElementById("slide").textContent = "presentation ended";
      document.getElementById("step").textContent = "";
      break;
    }
  };
</script>
</body>
</html>
`
