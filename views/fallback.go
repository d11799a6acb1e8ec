// Package views holds the few server-rendered screens.
package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const fallbackHead = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Trend Hack | Serviço indisponível</title>
<style>body{font-family:system-ui,sans-serif;background:#0f0f14;color:#e7e7ee;display:flex;min-height:100vh;align-items:center;justify-content:center;margin:0}main{max-width:32rem;padding:2rem;text-align:center}h1{font-size:1.5rem}p{color:#a9a9b8}</style>
</head>
<body>
<main>
<h1>`

const fallbackTail = `</p>
</main>
</body>
</html>`

// Fallback is shown on every route while the data service is unreachable.
func Fallback(title, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, fallbackHead); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(title)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "</h1>\n<p>"); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(message)); err != nil {
			return err
		}
		_, err := io.WriteString(w, fallbackTail)
		return err
	})
}

// DataServiceDown is the fallback content used when MySQL cannot be reached.
func DataServiceDown() templ.Component {
	return Fallback(
		"Estamos com instabilidade",
		"Não foi possível conectar ao serviço de dados. Tente novamente em alguns minutos.",
	)
}
