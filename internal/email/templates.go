package email

import (
	"bytes"
	"fmt"
	"text/template"

	"glowdesk/internal/models"
)

type catalog struct {
	welcome        *template.Template
	welcomeSubject string
	lowStock       *template.Template
	// lowStockSubject takes the item count and the salon name.
	lowStockSubject string
}

var catalogs = map[string]catalog{
	models.LanguageEnglish: {
		welcome: template.Must(template.New("welcome_en").Parse(`# Welcome to GlowDesk, {{.FirstName}}!

**{{.SalonName}}** is all set up. From your dashboard you can:

- keep client records and tags in one place
- book appointments and share your calendar feed
- send email campaigns with coupons

Reply to this email if you need a hand getting started.
`)),
		welcomeSubject: "Welcome to GlowDesk, %s",
		lowStock: template.Must(template.New("low_stock_en").Parse(`Hi {{.FirstName}},

These items at **{{.SalonName}}** are at or below their reorder level:

| Item | On hand | Reorder at |
|---|---|---|
{{range .Items}}| {{.Name}} | {{.Quantity}} | {{.ReorderLevel}} |
{{end}}
`)),
		lowStockSubject: "%d items running low at %s",
	},
	models.LanguageSpanish: {
		welcome: template.Must(template.New("welcome_es").Parse(`# ¡Bienvenida a GlowDesk, {{.FirstName}}!

**{{.SalonName}}** ya está listo. Desde tu panel puedes:

- guardar fichas de clientes y etiquetas en un solo lugar
- agendar citas y compartir tu calendario
- enviar campañas por correo con cupones

Responde a este correo si necesitas ayuda para empezar.
`)),
		welcomeSubject: "Bienvenida a GlowDesk, %s",
		lowStock: template.Must(template.New("low_stock_es").Parse(`Hola {{.FirstName}},

Estos productos de **{{.SalonName}}** están en o por debajo de su nivel de reposición:

| Producto | Disponible | Reponer en |
|---|---|---|
{{range .Items}}| {{.Name}} | {{.Quantity}} | {{.ReorderLevel}} |
{{end}}
`)),
		lowStockSubject: "%d productos con stock bajo en %s",
	},
}

// catalogFor falls back to English for unknown languages.
func catalogFor(lang string) catalog {
	if c, ok := catalogs[lang]; ok {
		return c
	}
	return catalogs[models.LanguageEnglish]
}

// WelcomeMessage is sent to a salon owner right after signup.
func WelcomeMessage(to, firstName, salonName, lang string) *models.EmailMessage {
	c := catalogFor(lang)
	var buf bytes.Buffer
	// The template only reads two strings, so execution cannot fail.
	_ = c.welcome.Execute(&buf, map[string]string{"FirstName": firstName, "SalonName": salonName})

	return &models.EmailMessage{
		To:       to,
		Subject:  fmt.Sprintf(c.welcomeSubject, salonName),
		Markdown: buf.String(),
	}
}

// LowStockMessage lists items that need reordering in the recipient's language.
func LowStockMessage(to, firstName, salonName, lang string, items []*models.InventoryItem) (*models.EmailMessage, error) {
	c := catalogFor(lang)
	var buf bytes.Buffer
	data := struct {
		FirstName string
		SalonName string
		Items     []*models.InventoryItem
	}{firstName, salonName, items}
	if err := c.lowStock.Execute(&buf, data); err != nil {
		return nil, err
	}

	return &models.EmailMessage{
		To:       to,
		Subject:  fmt.Sprintf(c.lowStockSubject, len(items), salonName),
		Markdown: buf.String(),
	}, nil
}
