package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	colorRed         = 31
	colorGreen       = 32
	colorYellow      = 33
	colorBlue        = 36
	colorGray        = 37
	colorLightGreen  = 92
	colorLightYellow = 93
	colorCyan        = 96
)

// NbFormatter renders colored key=value lines, "object" first and the rest sorted.
type NbFormatter struct{}

func (f *NbFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(pair("level", levelColor(entry.Level), strings.ToUpper(entry.Level.String())[:4]))
	b.WriteByte(' ')
	b.WriteString(pair("ts", colorLightYellow, entry.Time.Format("2006-01-02 15:04:05.000")))

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "object" || keys[j] == "object" {
			return keys[i] == "object"
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		s := encodeValue(entry.Data[k])
		if s == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(pair(k, valueColor(s), s))
	}
	b.WriteByte(' ')
	b.WriteString(pair("msg", colorLightGreen, strconv.Quote(entry.Message)))
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func pair(key string, color int, value string) string {
	value = strings.NewReplacer("\r", "\\r", "\n", "\\n").Replace(value)
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m=\x1b[%dm%s\x1b[0m", colorCyan, key, color, value)
}

func encodeValue(val any) string {
	if err, ok := val.(error); ok {
		val = err.Error()
	}
	m, err := json.Marshal(val)
	if err != nil {
		return ""
	}
	return string(m)
}

func levelColor(level log.Level) int {
	switch level {
	case log.DebugLevel, log.TraceLevel:
		return colorGray
	case log.WarnLevel:
		return colorYellow
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		return colorRed
	default:
		return colorBlue
	}
}

func valueColor(s string) int {
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return colorGreen
	}
	if strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"") {
		return colorLightYellow
	}
	return colorCyan
}
