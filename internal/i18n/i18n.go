package i18n

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/slavuta-ads/adsbot/resources"
)

const translationsPath = "i18n/translations.yml"

var state = struct {
	once         sync.Once
	translations map[string]map[string]string
}{}

func load() {
	content, err := resources.FS.ReadFile(translationsPath)
	if err != nil {
		log.WithError(err).Errorln("cant load i18n")
		return
	}
	dict := map[string]map[string]string{}
	if err := yaml.Unmarshal(content, &dict); err != nil {
		log.WithError(err).Errorln("cant unmarshal i18n")
		return
	}
	state.translations = dict
}

// Get returns the translation of key for lang, or the key itself when none exists.
func Get(key, lang string) string {
	if strings.EqualFold(lang, "en") || lang == "" {
		return key
	}
	state.once.Do(load)
	if res, ok := state.translations[key][strings.ToUpper(lang)]; ok && res != "" {
		return res
	}
	log.Tracef(`no translation for key "%s"`, key)
	return key
}
