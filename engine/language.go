package engine

import "braces.dev/errtrace"

// FallbackLanguage is the language unknown names resolve to.
// It renders as unstyled text.
const FallbackLanguage = "txt"

// EnsureLanguage makes the given language available on the instance,
// loading it at most once, and returns the resolved name.
//
// Names that are neither special, bundled, nor already loaded resolve
// to [FallbackLanguage] without error: unavailable languages silently
// degrade to unstyled text.
//
// Composite languages declare embedded sub-languages in their
// definitions; those are loaded before this call returns, in the same
// batch as the language itself.
func (inst *Instance) EnsureLanguage(name string) (string, error) {
	name = normalizeLang(name)
	if name == "" {
		return FallbackLanguage, nil
	}

	return errtrace.Wrap2(inst.tasks.Do("loadLanguage:"+name, func() (string, error) {
		if inst.registry.Special(name) {
			return name, nil
		}

		loaded := inst.HasLanguage(name)
		def, bundled := inst.registry.Bundled(name)
		if !loaded && !bundled {
			return FallbackLanguage, nil
		}

		var pending []LanguageDef
		if bundled {
			for _, sub := range def.Embeds {
				if inst.HasLanguage(sub) || inst.registry.Special(sub) {
					continue
				}
				subDef, ok := inst.registry.Bundled(sub)
				if !ok {
					continue
				}
				pending = append(pending, subDef)
			}
			if !loaded {
				pending = append(pending, def)
			}
		}

		if len(pending) > 0 {
			if err := inst.LoadLanguages(pending...); err != nil {
				return "", errtrace.Wrap(err)
			}
		}
		return name, nil
	}))
}
