// AngelaMos | 2026
// templates.go

package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; background: #f4f6f8; margin: 0; padding: 0; }
.container { max-width: 600px; margin: 32px auto; background: #ffffff; border-radius: 8px; overflow: hidden; }
.header { background: #0b3d91; padding: 24px; text-align: center; color: #ffffff; }
.content { padding: 32px 28px; color: #1f2933; line-height: 1.6; }
.box { background: #eef3fb; padding: 14px; border-left: 4px solid #f5a623; margin: 18px 0; }
.code { font-size: 28px; letter-spacing: 6px; font-weight: bold; }
.btn { display: inline-block; padding: 10px 22px; background: #f5a623; color: #ffffff; text-decoration: none; border-radius: 4px; }
.footer { padding: 16px; text-align: center; font-size: 12px; color: #7b8794; border-top: 1px solid #e4e7eb; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>WattGrid Marketplace</h1></div>
<div class="content">
<h2>{{.Title}}</h2>
{{template "body" .}}
</div>
<div class="footer">You received this email because you have an account on WattGrid Marketplace.</div>
</div>
</body>
</html>{{end}}`

var bodyTemplates = map[string]string{
	KindOTP: `{{define "body"}}
<p>Hello {{.Data.Name}},</p>
<p>{{if eq .Data.Purpose "password_reset"}}Use this code to reset your password.{{else}}Use this code to verify your email address.{{end}}</p>
<div class="box"><span class="code">{{.Data.Code}}</span></div>
<p>The code expires in {{.Data.ExpiresInMinutes}} minutes. If you did not request it, ignore this email.</p>
{{end}}`,

	KindEnquiryCreated: `{{define "body"}}
<p>Hello {{.Data.SellerName}},</p>
<p>A new enquiry matching your subscription area was just posted.</p>
<div class="box">
<strong>{{.Data.Title}}</strong><br>
{{.Data.City}}, {{.Data.State}}<br>
Budget: {{.Data.Budget}}
</div>
<a class="btn" href="{{.Data.Link}}">View enquiry</a>
{{end}}`,

	KindQuotationCreated: `{{define "body"}}
<p>Hello {{.Data.BuyerName}},</p>
<p>{{.Data.SellerName}} submitted a quotation for <strong>{{.Data.EnquiryTitle}}</strong>.</p>
<div class="box">
Total price: {{.Data.TotalPrice}}<br>
Delivery: {{.Data.DeliveryDays}} days
</div>
<a class="btn" href="{{.Data.Link}}">Review quotations</a>
{{end}}`,

	KindKYCStatus: `{{define "body"}}
<p>Hello {{.Data.Name}},</p>
{{if eq .Data.Status "approved"}}<p>Your KYC documents were approved. Your account is fully verified.</p>
{{else}}<p>Your KYC documents were rejected.</p>
{{if .Data.Reason}}<div class="box">Reason: {{.Data.Reason}}</div>{{end}}
<p>Please upload corrected documents from your profile.</p>{{end}}
{{end}}`,
}

type renderer struct {
	templates map[string]*template.Template
}

func newRenderer() *renderer {
	r := &renderer{templates: make(map[string]*template.Template, len(bodyTemplates))}
	for kind, body := range bodyTemplates {
		t := template.Must(template.New(kind).Parse(layoutTemplate))
		r.templates[kind] = template.Must(t.Parse(body))
	}
	return r
}

type view struct {
	Title string
	Data  any
}

func (r *renderer) render(kind, title string, data any) (string, error) {
	t, ok := r.templates[kind]
	if !ok {
		return "", fmt.Errorf("no template for %s", kind)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", view{Title: title, Data: data}); err != nil {
		return "", fmt.Errorf("render %s: %w", kind, err)
	}
	return buf.String(), nil
}
