package listing

import (
	"html"
	"strconv"
	"strings"

	"github.com/iamwavecut/tool"

	"github.com/slavuta-ads/adsbot/internal/stats"
	"github.com/slavuta-ads/adsbot/internal/utils/text"
)

// Author identifies the submitting user in the moderation message.
type Author struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

func (a Author) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func (a Author) Handle() string {
	if a.Username == "" {
		return "немає"
	}
	return a.Username
}

const (
	authorTemplate = `👤 Користувач: {{ .first_name }} {{ .last_name }}
🔗 Username: @{{ .username }}
🆔 User ID: {{ .user_id }}
🔖 Ref: {{ .ref }}`

	paidTemplate = `
💳 Paid: {{ .paid }}`

	advertisingTermsTemplate = `
📝 Type: {{ .ad_type }}
💰 Price: {{ .price }} грн
⏱ Period: {{ .duration }}`

	advertisingTemplate = `<pre>📢 Реклама

🏷️ Назва: {{ .company_name }}
📝 Опис: {{ .description }}
📞 Контакти: {{ .contact }}

✏️ Подати оголошення:
{{ .bot_handle }}</pre>
`

	buyingTemplate = `<pre>🛒 Купівля

🏷️ Назва: {{ .product_name }}
📝 Опис: {{ .description }}
💰 Вартість до: {{ .max_price }} {{ .currency }}
📞 Контакти: {{ .contact }}

🔍 Схожі запити:
#{{ .category }}

✏️ Подати оголошення:
{{ .bot_handle }}</pre>
`

	sellingTemplate = `<pre>🛒 Продаж

🏷️ Назва: {{ .item_name }}
💰 Вартість: {{ .price_info }}{{ if .negotiable }} (Торг){{ end }}
📦 Стан: {{ .condition }}
📝 Опис: {{ .description }}
📞 Контакти: {{ .contact }}

🔍 Схожі товари:
#{{ .category }}

✏️ Подати оголошення:
{{ .bot_handle }}</pre>
`

	announcementTemplate = `<pre>📰 Оголошення

📝 Опис: {{ .description }}
📞 Контакти: {{ .contact }}

🔍 Схожі оголошення:
#{{ .category }}

✏️ Подати оголошення:
{{ .bot_handle }}</pre>
`
)

// Renderer builds the HTML moderation message for a submission.
type Renderer struct {
	BotHandle string
}

func (r Renderer) Render(f Form, author Author, ref string) string {
	return r.renderAuthor(f, author, ref) + "\n" + r.renderContent(f)
}

func (r Renderer) renderAuthor(f Form, author Author, ref string) string {
	vars := escaped(map[string]string{
		"first_name": author.FirstName,
		"last_name":  author.LastName,
		"username":   author.Handle(),
		"user_id":    strconv.FormatInt(author.ID, 10),
		"ref":        ref,
	})
	out := tool.ExecTemplate(authorTemplate, vars)
	switch f.Type {
	case stats.FormAdvertising:
		out += tool.ExecTemplate(advertisingTermsTemplate, escaped(map[string]string{
			"ad_type":  f.Line("adType", notSpecified),
			"price":    f.String("finalPrice", "0"),
			"duration": f.Line("duration", notSpecified),
		}))
	default:
		paid := "Ні"
		if f.Bool("isPinned") {
			paid = "Так"
		}
		out += tool.ExecTemplate(paidTemplate, map[string]any{"paid": paid})
	}
	return out
}

func (r Renderer) renderContent(f Form) string {
	switch f.Type {
	case stats.FormAdvertising:
		return tool.ExecTemplate(advertisingTemplate, r.vars(map[string]string{
			"company_name": f.Line("companyName", notSpecified),
			"description":  f.String("adDescription", notSpecified),
			"contact":      f.Line("adContact", notSpecified),
		}))
	case stats.FormBuying:
		return tool.ExecTemplate(buyingTemplate, r.vars(map[string]string{
			"product_name": f.Line("productName", notSpecified),
			"description":  f.String("buyerDescription", notSpecified),
			"max_price":    f.String("maxPrice", notSpecified),
			"currency":     f.String("maxPriceCurrency", "грн"),
			"contact":      f.Line("buyerContact", notSpecified),
			"category":     text.Hashtag(f.String("buyingCategory", "")),
		}))
	case stats.FormSelling:
		vars := r.vars(map[string]string{
			"item_name":   f.Line("itemName", notSpecified),
			"price_info":  priceInfo(f),
			"condition":   f.Line("condition", notSpecified),
			"description": f.String("sellerDescription", notSpecified),
			"contact":     f.Line("sellerContact", notSpecified),
			"category":    text.Hashtag(f.String("sellingCategory", "")),
		})
		vars["negotiable"] = f.Bool("isNegotiable")
		return tool.ExecTemplate(sellingTemplate, vars)
	default:
		return tool.ExecTemplate(announcementTemplate, r.vars(map[string]string{
			"description": f.String("description", notSpecified),
			"contact":     f.Line("contact", notSpecified),
			"category":    text.Hashtag(f.String("category", "")),
		}))
	}
}

func (r Renderer) vars(values map[string]string) map[string]any {
	values["bot_handle"] = r.BotHandle
	return escaped(values)
}

func priceInfo(f Form) string {
	switch {
	case f.Bool("isFree"):
		return "Віддам даром"
	case f.String("priceType", "") == "negotiablePrice":
		return "Договірна"
	default:
		return f.String("price", notSpecified) + " " + f.String("priceCurrency", "грн")
	}
}

func escaped(values map[string]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = html.EscapeString(v)
	}
	return out
}
