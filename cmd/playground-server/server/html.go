package server

// HTMLPage is the fixture playground: a textarea-backed editor exposed as
// window.playgroundEditor, a run button, a preview container, an error panel
// and example buttons. The editor global is installed asynchronously, like a
// lazily loaded Monaco instance.
const HTMLPage = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Playground</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 960px;
            margin: 40px auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            padding: 24px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h1 { color: #333; margin-top: 0; }
        textarea {
            width: 100%;
            min-height: 220px;
            font-family: 'SF Mono', Consolas, monospace;
            font-size: 14px;
            box-sizing: border-box;
        }
        button {
            background: #4285f4;
            color: white;
            border: none;
            padding: 8px 16px;
            border-radius: 4px;
            cursor: pointer;
            font-size: 14px;
            margin: 8px 8px 8px 0;
        }
        button.example { background: #e8f0fe; color: #1a73e8; }
        .preview {
            min-height: 40px;
            border: 1px solid #ddd;
            border-radius: 4px;
            padding: 12px;
            margin-top: 12px;
        }
        .error {
            background: #f8d7da;
            color: #721c24;
            padding: 12px;
            border-radius: 4px;
            margin-top: 12px;
            white-space: pre-wrap;
        }
    </style>
</head>
<body>
    <div class="container" data-controller="playground">
        <h1>Playground</h1>

        <div class="examples">
            <button class="example" data-playground-example="heading">Heading</button>
            <button class="example" data-playground-example="list">List</button>
            <button class="example" data-playground-example="table">Table</button>
            <button class="example" data-playground-example="broken">Broken</button>
        </div>

        <textarea id="editor" data-playground-target="editor" spellcheck="false"></textarea>

        <div>
            <button id="run" data-playground-target="run" data-action="click->playground#run">Run</button>
        </div>

        <div class="error" data-playground-target="error" role="alert" hidden></div>
        <div class="preview" data-playground-target="preview"></div>
    </div>

    <script>
        const root = document.querySelector('[data-controller~="playground"]');
        const textarea = root.querySelector('[data-playground-target="editor"]');
        const preview = root.querySelector('[data-playground-target="preview"]');
        const errorPanel = root.querySelector('[data-playground-target="error"]');

        function showError(message) {
            preview.innerHTML = '';
            errorPanel.textContent = message;
            errorPanel.hidden = false;
        }

        function showPreview(html) {
            errorPanel.textContent = '';
            errorPanel.hidden = true;
            preview.innerHTML = html;
        }

        async function run() {
            try {
                const response = await fetch('/playground/preview', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify({ code: window.playgroundEditor.getValue() })
                });
                const body = await response.json().catch(() => ({}));
                if (!response.ok) {
                    showError(body.error || ('Server returned ' + response.status));
                    return;
                }
                showPreview(body.html || '');
            } catch (err) {
                showError(err.message || String(err));
            }
        }

        async function loadExample(name) {
            const response = await fetch('/playground/examples/' + encodeURIComponent(name));
            if (!response.ok) {
                showError('Unknown example: ' + name);
                return;
            }
            const body = await response.json();
            window.playgroundEditor.setValue(body.code);
        }

        root.querySelector('[data-playground-target="run"]').addEventListener('click', run);
        root.querySelectorAll('[data-playground-example]').forEach(button => {
            button.addEventListener('click', () => loadExample(button.dataset.playgroundExample));
        });

        // Install the editor global after a tick, as a lazily loaded editor would.
        setTimeout(() => {
            window.playgroundEditor = {
                getValue: () => textarea.value,
                setValue: (value) => { textarea.value = value; }
            };
        }, 50);
    </script>
</body>
</html>
`
