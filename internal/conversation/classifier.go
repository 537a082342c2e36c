package conversation

import "strings"

// schedulingLinkDomain is the Cal.com link substring the assistant sends when
// offering a booking. Plain substring test, no URL parsing.
const schedulingLinkDomain = "cal.com/"

// serviceEntry maps one canonical service label to its lowercase keyword
// variants, including common misspellings and synonyms seen in real chats.
type serviceEntry struct {
	label    string
	keywords []string
}

// serviceKeywords is the canonical classification table. Matching is naive
// substring search over the lowercased message, which is known to produce
// false positives (e.g. "suero" inside unrelated words); the aggregate numbers
// depend on that behavior, so keep it.
var serviceKeywords = []serviceEntry{
	{"Botox", []string{"botox", "bótox", "toxina botulínica"}},
	{"Rellenos", []string{"relleno", "rellenos", "filler", "fillers", "ácido hialurónico"}},
	{"Morpheus8", []string{"morpheus", "morpheus8", "morpheus 8"}},
	{"Morpheus8 V", []string{"morpheus8 v", "morpheus v", "rejuvenecimiento vaginal", "rejuvenecimiento íntimo"}},
	{"Sueroterapia", []string{"sueroterapia", "suero", "terapia intravenosa", "iv therapy", "nad+", "nad"}},
	{"Tirzepatide", []string{"tirzepatide", "mounjaro", "zepbound", "bajar de peso", "perder peso", "pérdida de peso", "weight loss", "inyecciones para bajar"}},
	{"Control Prenatal", []string{"prenatal", "embarazo", "pregnancy", "embarazada", "seguimiento de embarazo"}},
	{"Ginecología", []string{"ginecología", "ginecologia", "gynecology", "ginecológico", "genecologia"}},
	{"Tratamiento Facial", []string{"facial", "limpieza facial", "hydrafacial", "skin care"}},
	{"Peeling", []string{"peeling", "peel", "exfoliación"}},
	{"Láser", []string{"láser", "laser", "depilación láser"}},
	{"Plasma/PRP", []string{"plasma", "prp", "platelet"}},
	{"Hilos Tensores", []string{"hilos", "hilos tensores", "thread lift", "lifting", "hilos sensore"}},
	{"Implantes Hormonales", []string{"implantes hormonales", "biote", "pellets", "hormonas"}},
	{"Consulta General", []string{"consulta general", "información general", "información sobre servicios"}},
}

// DetectServices returns the service labels mentioned in a message, each at
// most once, in table order. First keyword hit wins per label.
func DetectServices(text string) []string {
	lower := strings.ToLower(text)
	var services []string
	for _, entry := range serviceKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				services = append(services, entry.label)
				break
			}
		}
	}
	return services
}

// HasSchedulingLink reports whether an assistant message contains the
// scheduling provider's booking link.
func HasSchedulingLink(text string) bool {
	return strings.Contains(text, schedulingLinkDomain)
}
