package ai

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// Fill replaces {{name}} placeholders with vars[name]. Unknown names are
// left as written.
func Fill(template string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		if v, ok := vars[key]; ok {
			return v
		}
		return m
	})
}

// TemplateVars builds the variable set for one recipient: recipient.*,
// recipient.metadata.*, campaign.*, date and time, plus the message's own
// custom variables (which never override the built-ins).
func TemplateVars(recipientName, email, phone string, metadata map[string]any, campaignName string, custom map[string]any, now time.Time) map[string]string {
	vars := map[string]string{}
	for k, v := range custom {
		if v != nil {
			vars[k] = fmt.Sprint(v)
		}
	}
	for k, v := range metadata {
		if v != nil {
			vars["recipient.metadata."+k] = fmt.Sprint(v)
		}
	}

	first := ""
	if f := strings.Fields(recipientName); len(f) > 0 {
		first = f[0]
	}
	vars["recipient.name"] = recipientName
	vars["recipient.firstName"] = first
	vars["recipient.email"] = email
	vars["recipient.phone"] = phone
	vars["recipient.company"] = stringValue(metadata["company"])
	vars["recipient.position"] = stringValue(metadata["position"])
	vars["campaign.name"] = campaignName
	vars["date"] = now.Format("02/01/2006")
	vars["time"] = now.Format("15:04")
	return vars
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
