package validator

import "github.com/use-agent/courtsched/models"

// Option sets mirror the portal's dropdowns. A value outside these sets
// would make the select step fail inside the browser, so it is rejected up
// front instead.
var (
	competencies = newSet(
		models.CompetencySupreme,
		models.CompetencyAppeals,
		models.CompetencyCivil,
		models.CompetencyLabor,
		models.CompetencyCriminal,
		models.CompetencyCollection,
		models.CompetencyFamily,
	)

	courts = newSet(
		"Todos",
		"C.A. de Arica",
		"C.A. de Iquique",
		"C.A. de Antofagasta",
		"C.A. de Copiapó",
		"C.A. de La Serena",
		"C.A. de Valparaíso",
		"C.A. de Rancagua",
		"C.A. de Talca",
		"C.A. de Chillan",
		"C.A. de Concepción",
		"C.A. de Temuco",
		"C.A. de Valdivia",
		"C.A. de Puerto Montt",
		"C.A. de Coyhaique",
		"C.A. de Punta Arenas",
		"C.A. de Santiago",
		"C.A. de San Miguel",
	)

	books = newSet(
		"Todos",
		"Civil",
		"Familia",
		"Laboral - Cobranza",
		"Penal",
		"Contencioso Administrativo",
		"Tributario Y Aduanero",
		"Protección",
		"Amparo",
		"Policia Local",
		"Exhorto",
		"Ley De Navegación",
		"Ambiental",
		"Traspaso Corte Marcial",
		"Ministro Primera Instancia Y Fuero",
		"Com. Lib. Cond.",
	)
)

type set map[string]struct{}

func newSet(values ...string) set {
	s := make(set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}
