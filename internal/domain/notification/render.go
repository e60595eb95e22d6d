package notification

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Generate renders the template for an event from the supplied fields.
// Unknown events fall back to approval_required; missing fields render empty.
func Generate(event Event, data map[string]interface{}) Template {
	def, ok := definitions[event]
	if !ok {
		event = EventApprovalRequired
		def = definitions[event]
	}

	return Template{
		Event:      event,
		Type:       def.channel,
		Subject:    render(def.subject, data),
		Template:   render(def.body, data),
		Recipients: collectRecipients(def.recipientKeys, data),
		Priority:   def.priority,
	}
}

func render(text string, data map[string]interface{}) string {
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := data[key]
		if !ok || value == nil {
			return ""
		}
		return FormatValue(value)
	})
}

// collectRecipients merges the explicit recipients list with the template's recipient fields
func collectRecipients(keys []string, data map[string]interface{}) []string {
	seen := make(map[string]bool)
	recipients := make([]string, 0)

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		recipients = append(recipients, v)
	}

	switch list := data["recipients"].(type) {
	case []string:
		for _, r := range list {
			add(r)
		}
	case []interface{}:
		for _, r := range list {
			if s, ok := r.(string); ok {
				add(s)
			}
		}
	case string:
		for _, r := range strings.Split(list, ",") {
			add(r)
		}
	}

	for _, key := range keys {
		if s, ok := data[key].(string); ok {
			add(s)
		}
	}

	return recipients
}

// FormatValue renders a field value for display. Numbers get thousands separators.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return FormatAmount(v)
	case float32:
		return FormatAmount(float64(v))
	case int:
		return FormatAmount(float64(v))
	case int64:
		return FormatAmount(float64(v))
	case time.Time:
		return v.Format("2 Jan 2006")
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format("2 Jan 2006")
	default:
		return fmt.Sprint(v)
	}
}

// FormatAmount formats an amount as 1,234,567.89, dropping a zero fraction
func FormatAmount(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	if frac != "00" {
		return sign + b.String() + "." + frac
	}
	return sign + b.String()
}
