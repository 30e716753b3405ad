package httpserver

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/Zaybrah/sleepless-agent/internal/logfields"
)

//go:embed static
var staticEmbed embed.FS

// staticFiles is the embedded asset tree rooted at static/.
var staticFiles, _ = fs.Sub(staticEmbed, "static")

var (
	homeTemplate  = template.Must(template.New("home").Parse(homeHTML))
	filesTemplate = template.Must(template.New("files").Parse(filesHTML))
)

type homePageData struct {
	ConfigPath string
}

// homePage renders the configuration and daemon control page. The page's
// script loads the live config and agent status through the JSON API.
func (s *Server) homePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, homePageData{ConfigPath: s.opts.ConfigPath}); err != nil {
		slog.Error("Failed to render home page", logfields.Error(err))
	}
}

// filesPage renders the workspace file browser page.
func (s *Server) filesPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := filesTemplate.Execute(w, nil); err != nil {
		slog.Error("Failed to render files page", logfields.Error(err))
	}
}

const homeHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Sleepless Agent</title>
<link rel="stylesheet" href="/static/style.css">
</head>
<body>
<header>
  <h1>Sleepless Agent</h1>
  <nav><a href="/">Configuration</a> | <a href="/files">Files</a></nav>
</header>
<section id="agent">
  <h2>Agent</h2>
  <p>Status: <span id="agent-status">checking…</span></p>
  <button id="start-btn">Start</button>
  <button id="stop-btn">Stop</button>
</section>
<section id="config">
  <h2>Configuration</h2>
  <p class="muted">{{.ConfigPath}}</p>
  <textarea id="config-editor" rows="24" spellcheck="false"></textarea>
  <button id="save-config-btn">Save</button>
  <p id="config-message"></p>
</section>
<script>
async function refreshStatus() {
  const res = await fetch('/api/agent/status');
  const data = await res.json();
  const el = document.getElementById('agent-status');
  el.textContent = data.running ? 'running (pid ' + data.pid + ')' : 'stopped';
}
async function loadConfig() {
  const res = await fetch('/api/config');
  const data = await res.json();
  if (data.success) {
    document.getElementById('config-editor').value = JSON.stringify(data.config, null, 2);
  }
}
document.getElementById('start-btn').addEventListener('click', async () => {
  const res = await fetch('/api/agent/start', {method: 'POST'});
  const data = await res.json();
  if (!data.success) alert(data.error);
  refreshStatus();
});
document.getElementById('stop-btn').addEventListener('click', async () => {
  const res = await fetch('/api/agent/stop', {method: 'POST'});
  const data = await res.json();
  if (!data.success) alert(data.error);
  refreshStatus();
});
document.getElementById('save-config-btn').addEventListener('click', async () => {
  const msg = document.getElementById('config-message');
  let parsed;
  try {
    parsed = JSON.parse(document.getElementById('config-editor').value);
  } catch (e) {
    msg.textContent = 'Invalid JSON: ' + e.message;
    return;
  }
  const res = await fetch('/api/config', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({config: parsed}),
  });
  const data = await res.json();
  msg.textContent = data.success ? data.message : data.error;
});
refreshStatus();
loadConfig();
setInterval(refreshStatus, 5000);
</script>
</body>
</html>`

const filesHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Sleepless Agent - Files</title>
<link rel="stylesheet" href="/static/style.css">
</head>
<body>
<header>
  <h1>Workspace Files</h1>
  <nav><a href="/">Configuration</a> | <a href="/files">Files</a></nav>
</header>
<section>
  <p id="current-path" class="muted">/</p>
  <ul id="listing"></ul>
</section>
<section id="editor-section" hidden>
  <h2 id="editor-path"></h2>
  <textarea id="file-editor" rows="24" spellcheck="false"></textarea>
  <button id="save-file-btn">Save</button>
  <p id="file-message"></p>
</section>
<script>
let currentPath = '';
async function browse(path) {
  const res = await fetch('/api/files/browse?path=' + encodeURIComponent(path));
  const data = await res.json();
  if (!data.success) { alert(data.error); return; }
  if (data.type === 'file') { openFile(data.path); return; }
  currentPath = data.path;
  document.getElementById('current-path').textContent = '/' + currentPath;
  const listing = document.getElementById('listing');
  listing.innerHTML = '';
  if (currentPath !== '') {
    const up = document.createElement('li');
    up.textContent = '..';
    up.onclick = () => browse(currentPath.split('/').slice(0, -1).join('/'));
    listing.appendChild(up);
  }
  for (const item of data.items) {
    const li = document.createElement('li');
    li.textContent = item.type === 'directory' ? item.name + '/' : item.name;
    li.onclick = () => item.type === 'directory' ? browse(item.path) : openFile(item.path);
    listing.appendChild(li);
  }
}
async function openFile(path) {
  const res = await fetch('/api/files/read?path=' + encodeURIComponent(path));
  const data = await res.json();
  if (!data.success) { alert(data.error); return; }
  document.getElementById('editor-section').hidden = false;
  document.getElementById('editor-path').textContent = data.path;
  document.getElementById('file-editor').value = data.content;
}
document.getElementById('save-file-btn').addEventListener('click', async () => {
  const res = await fetch('/api/files/write', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({
      path: document.getElementById('editor-path').textContent,
      content: document.getElementById('file-editor').value,
    }),
  });
  const data = await res.json();
  document.getElementById('file-message').textContent = data.success ? data.message : data.error;
});
browse('');
</script>
</body>
</html>`
