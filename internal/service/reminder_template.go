package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cartrecovery/internal/i18n"

	"github.com/osteele/liquid"
)

const reminderHTMLTemplate = `<!DOCTYPE html>
<html>
<body style="font-family:Arial,sans-serif;color:#333;">
<p>{{ greeting | escape }}</p>
<p>{{ intro | escape }}</p>
<table style="border-collapse:collapse;width:100%;">
{% for item in items %}<tr>
<td style="padding:6px 0;">{{ item.title | escape }}</td>
<td style="padding:6px 0;text-align:center;">x{{ item.quantity }}</td>
<td style="padding:6px 0;text-align:right;">{{ item.line_total }}</td>
</tr>
{% endfor %}<tr>
<td colspan="2" style="padding-top:10px;font-weight:bold;">{{ total_label | escape }}</td>
<td style="padding-top:10px;text-align:right;font-weight:bold;">{{ cart_total }}</td>
</tr>
</table>
{% if discount_line != "" %}<p style="color:#c0392b;">{{ discount_line | escape }}</p>
{% endif %}<p><a href="{{ recovery_url | escape }}" style="display:inline-block;padding:10px 18px;background:#2d8cf0;color:#fff;text-decoration:none;border-radius:4px;">{{ cta | escape }}</a></p>
<p style="color:#999;font-size:12px;">{{ expiry_line | escape }}</p>
</body>
</html>`

const reminderTextTemplate = `{{ greeting }}

{{ intro }}

{% for item in items %}- {{ item.title }} x{{ item.quantity }}  {{ item.line_total }}
{% endfor %}{{ total_label }}: {{ cart_total }}
{% if discount_line != "" %}
{{ discount_line }}
{% endif %}
{{ cta }}: {{ recovery_url }}

{{ expiry_line }}
`

// ReminderItem 邮件中的一行商品
type ReminderItem struct {
	Title     string
	Quantity  int
	LineTotal string
}

// ReminderContent 渲染提醒邮件所需的数据
type ReminderContent struct {
	Locale          string
	Name            string
	Slot            int
	FinalSlot       bool
	ItemCount       int
	CartTotal       string
	Items           []ReminderItem
	RecoveryURL     string
	ExpiresAt       string
	DiscountCode    string
	DiscountPercent string
}

// RenderedReminder 渲染结果
type RenderedReminder struct {
	Subject string
	HTML    string
	Text    string
}

// ReminderRenderer 基于 liquid 的提醒邮件渲染器，解析结果按模板源缓存
type ReminderRenderer struct {
	engine *liquid.Engine
	cache  sync.Map
}

// NewReminderRenderer 创建渲染器
func NewReminderRenderer() *ReminderRenderer {
	return &ReminderRenderer{engine: liquid.NewEngine()}
}

// Render 渲染主题、HTML 与纯文本正文
func (r *ReminderRenderer) Render(content ReminderContent) (*RenderedReminder, error) {
	locale := i18n.NormalizeLocale(content.Locale)
	name := strings.TrimSpace(content.Name)
	if name == "" {
		name = i18n.T(locale, "mail.default_name")
	}
	hasDiscount := content.FinalSlot && content.DiscountCode != ""
	vars := map[string]interface{}{
		"name":             name,
		"item_count":       content.ItemCount,
		"discount_code":    content.DiscountCode,
		"discount_percent": content.DiscountPercent,
		"expires_at":       content.ExpiresAt,
	}

	subjectKey := "mail.reminder_subject_n"
	switch {
	case hasDiscount:
		subjectKey = "mail.reminder_subject_final"
	case content.Slot <= 1:
		subjectKey = "mail.reminder_subject_1"
	}
	subject, err := r.renderMessage(locale, subjectKey, vars)
	if err != nil {
		return nil, err
	}

	lines := make(map[string]string, 4)
	for field, key := range map[string]string{
		"greeting":    "mail.reminder_greeting",
		"intro":       "mail.reminder_intro",
		"expiry_line": "mail.reminder_expiry",
	} {
		if lines[field], err = r.renderMessage(locale, key, vars); err != nil {
			return nil, err
		}
	}
	if hasDiscount {
		if lines["discount_line"], err = r.renderMessage(locale, "mail.reminder_discount", vars); err != nil {
			return nil, err
		}
	}

	items := make([]map[string]interface{}, 0, len(content.Items))
	for _, item := range content.Items {
		items = append(items, map[string]interface{}{
			"title":      item.Title,
			"quantity":   item.Quantity,
			"line_total": item.LineTotal,
		})
	}
	body := map[string]interface{}{
		"greeting":      lines["greeting"],
		"intro":         lines["intro"],
		"expiry_line":   lines["expiry_line"],
		"discount_line": lines["discount_line"],
		"total_label":   i18n.T(locale, "mail.reminder_total"),
		"cta":           i18n.T(locale, "mail.reminder_cta"),
		"cart_total":    content.CartTotal,
		"recovery_url":  content.RecoveryURL,
		"items":         items,
	}
	html, err := r.render(reminderHTMLTemplate, body)
	if err != nil {
		return nil, err
	}
	text, err := r.render(reminderTextTemplate, body)
	if err != nil {
		return nil, err
	}
	return &RenderedReminder{Subject: strings.TrimSpace(subject), HTML: html, Text: text}, nil
}

func (r *ReminderRenderer) renderMessage(locale, key string, vars map[string]interface{}) (string, error) {
	return r.render(i18n.T(locale, key), vars)
}

func (r *ReminderRenderer) render(source string, bindings map[string]interface{}) (string, error) {
	if cached, ok := r.cache.Load(source); ok {
		return cached.(*liquid.Template).RenderString(bindings)
	}
	tpl, err := r.engine.ParseString(source)
	if err != nil {
		return "", fmt.Errorf("parse reminder template: %w", err)
	}
	r.cache.Store(source, tpl)
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("render reminder template: %w", err)
	}
	return out, nil
}
