// Package view renders the gallery page as a templ component.
package view

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
)

// Gallery renders the full page: upload form, diagnostics, thumbnails with
// rotate/delete controls, the notification bar and the preview overlay.
// The embedded script keeps the page in sync over /ws.
func Gallery(gallery *dto.GalleryDTO) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>Image Uploader</title><style>`)
		b.WriteString(pageCSS)
		b.WriteString(`</style></head><body><main>`)
		b.WriteString(`<h1>Image Uploader</h1>`)

		fmt.Fprintf(&b, `<p class="counter" id="counter">%d / %d images</p>`, gallery.Count, gallery.Capacity)

		b.WriteString(`<form id="upload" class="drop" enctype="multipart/form-data">`)
		b.WriteString(`<input type="file" name="files" accept="image/png,image/jpeg" multiple>`)
		b.WriteString(`<p>Drop PNG or JPG files here, or pick them.</p></form>`)

		writeErrors(&b, gallery.Errors)
		writeImages(&b, gallery.Images)
		writeNotification(&b, gallery.Notification)

		b.WriteString(`<div id="preview" class="preview" hidden><img alt=""><button data-close>Close</button></div>`)
		b.WriteString(`</main><script>`)
		b.WriteString(pageJS)
		b.WriteString(`</script></body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeErrors(b *strings.Builder, errs dto.AdmissionErrorsDTO) {
	b.WriteString(`<div id="errors" class="errors">`)
	if errs.Capacity != "" {
		fmt.Fprintf(b, `<p class="error" data-kind="capacity">%s</p>`, templ.EscapeString(errs.Capacity))
	}
	if errs.Format != "" {
		fmt.Fprintf(b, `<p class="error" data-kind="format">%s</p>`, templ.EscapeString(errs.Format))
	}
	b.WriteString(`</div>`)
}

func writeImages(b *strings.Builder, images []*dto.ImageDTO) {
	b.WriteString(`<ul id="images" class="grid">`)
	for _, img := range images {
		fmt.Fprintf(b, `<li data-index="%d">`, img.Index)
		if img.HasPayload {
			fmt.Fprintf(b, `<img src="%s?v=%s" alt="%s" data-preview="%d">`,
				templ.EscapeString(img.ContentURL),
				templ.EscapeString(img.ID),
				templ.EscapeString(img.Name),
				img.Index,
			)
		} else {
			fmt.Fprintf(b, `<div class="missing">%s</div>`, templ.EscapeString(img.Name))
		}
		fmt.Fprintf(b, `<span class="name">%s</span>`, templ.EscapeString(img.Name))
		b.WriteString(`<div class="actions">`)
		fmt.Fprintf(b, `<button data-rotate="left" data-index="%d">⟲</button>`, img.Index)
		fmt.Fprintf(b, `<button data-rotate="right" data-index="%d">⟳</button>`, img.Index)
		fmt.Fprintf(b, `<button data-delete="%d">Delete</button>`, img.Index)
		b.WriteString(`</div></li>`)
	}
	b.WriteString(`</ul>`)
}

func writeNotification(b *strings.Builder, n *dto.NotificationDTO) {
	if n == nil {
		b.WriteString(`<div id="notification" class="notification" hidden></div>`)
		return
	}
	fmt.Fprintf(b, `<div id="notification" class="notification %s">%s</div>`,
		templ.EscapeString(n.Severity),
		templ.EscapeString(n.Message),
	)
}

const pageCSS = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#222}
main{max-width:960px;margin:0 auto;padding:24px}
.drop{border:2px dashed #99a;border-radius:8px;padding:24px;text-align:center;background:#fff}
.drop.over{border-color:#36c;background:#eef3ff}
.errors .error{color:#b00020;margin:4px 0}
.grid{list-style:none;padding:0;display:grid;grid-template-columns:repeat(auto-fill,minmax(160px,1fr));gap:12px}
.grid li{background:#fff;border-radius:8px;padding:8px;text-align:center}
.grid img{max-width:100%;max-height:140px;cursor:zoom-in}
.missing{height:140px;display:flex;align-items:center;justify-content:center;color:#888}
.name{display:block;font-size:12px;overflow:hidden;text-overflow:ellipsis;white-space:nowrap}
.notification{position:fixed;bottom:16px;left:50%;transform:translateX(-50%);padding:10px 16px;border-radius:6px;background:#333;color:#fff}
.notification.success{background:#2e7d32}.notification.error{background:#c62828}
.notification.warning{background:#ef6c00}.notification.info{background:#1565c0}
.preview{position:fixed;inset:0;background:rgba(0,0,0,.8);display:flex;align-items:center;justify-content:center;flex-direction:column}
.preview img{max-width:90vw;max-height:85vh}
`

const pageJS = `
(function(){
  const api = '/api/v1';
  const form = document.getElementById('upload');
  const input = form.querySelector('input[type=file]');

  async function upload(files){
    if (!files || files.length === 0) return;
    const body = new FormData();
    for (const f of files) body.append('files', f, f.name);
    await fetch(api + '/images', {method:'POST', body});
    input.value = '';
  }

  input.addEventListener('change', () => upload(input.files));
  form.addEventListener('dragover', e => { e.preventDefault(); form.classList.add('over'); });
  form.addEventListener('dragleave', () => form.classList.remove('over'));
  form.addEventListener('drop', e => { e.preventDefault(); form.classList.remove('over'); upload(e.dataTransfer.files); });

  document.addEventListener('click', async e => {
    const t = e.target;
    if (t.dataset.rotate) {
      await fetch(api + '/images/' + t.dataset.index + '/rotate?direction=' + t.dataset.rotate, {method:'POST'});
    } else if (t.dataset.delete) {
      await fetch(api + '/images/' + t.dataset.delete, {method:'DELETE'});
    } else if (t.dataset.preview) {
      const res = await fetch(api + '/images/' + t.dataset.preview + '/preview', {method:'POST'});
      if (res.ok) showPreview(await res.json());
    } else if (t.dataset.close !== undefined) {
      await fetch(api + '/preview', {method:'DELETE'});
    } else if (t.id === 'notification') {
      await fetch(api + '/notification', {method:'DELETE'});
    }
  });

  function esc(s){ const d = document.createElement('div'); d.textContent = s; return d.innerHTML; }

  function showPreview(p){
    const el = document.getElementById('preview');
    if (!p) { el.hidden = true; return; }
    if (p.data_url) el.querySelector('img').src = p.data_url;
    el.hidden = false;
  }

  function showNotification(n){
    const el = document.getElementById('notification');
    if (!n) { el.hidden = true; return; }
    el.className = 'notification ' + n.severity;
    el.textContent = n.message;
    el.hidden = false;
  }

  function render(g){
    document.getElementById('counter').textContent = g.count + ' / ' + g.capacity + ' images';
    const errs = [];
    if (g.errors.capacity) errs.push('<p class="error" data-kind="capacity">' + esc(g.errors.capacity) + '</p>');
    if (g.errors.format) errs.push('<p class="error" data-kind="format">' + esc(g.errors.format) + '</p>');
    document.getElementById('errors').innerHTML = errs.join('');
    document.getElementById('images').innerHTML = g.images.map(img =>
      '<li data-index="' + img.index + '">' +
      (img.has_payload
        ? '<img src="' + img.content_url + '?v=' + img.id + '" alt="' + esc(img.name) + '" data-preview="' + img.index + '">'
        : '<div class="missing">' + esc(img.name) + '</div>') +
      '<span class="name">' + esc(img.name) + '</span><div class="actions">' +
      '<button data-rotate="left" data-index="' + img.index + '">⟲</button>' +
      '<button data-rotate="right" data-index="' + img.index + '">⟳</button>' +
      '<button data-delete="' + img.index + '">Delete</button></div></li>').join('');
    showNotification(g.notification);
    if (!g.preview) showPreview(null);
  }

  function connect(){
    const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    const ws = new WebSocket(proto + location.host + '/ws' + location.search);
    ws.onmessage = ev => {
      const msg = JSON.parse(ev.data);
      if (msg.type === 'collection') render(msg.data);
      if (msg.type === 'notification') showNotification(msg.data);
    };
    ws.onclose = () => setTimeout(connect, 2000);
  }
  connect();
})();
`
