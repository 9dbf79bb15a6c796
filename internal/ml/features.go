package ml

import (
	"fmt"
	"strings"
)

// Features is the flat named-feature vector the no-show model consumes:
// 17 clinical/demographic values plus 81 one-hot neighborhood indicators.
type Features map[string]float64

// Clinical and demographic feature keys.
var clinicalKeys = []string{
	"Gender",
	"Age",
	"Scholarship",
	"Hypertension",
	"Diabetes",
	"Alcoholism",
	"Handicap",
	"SmsReceived",
	"LeadDays",
	"ScheduledDayOfWeek",
	"ScheduledDayDay",
	"AppointmentDayDay",
	"AppointmentDayOfWeek",
	"NoShowRate",
	"LastShowStatus",
	"AppointmentCount",
	"LastAppointmentDays",
}

// One-hot neighborhood indicator keys, exactly as the model was trained.
var neighbourhoodKeys = []string{
	"Neighbourhood_AEROPORTO",
	"Neighbourhood_ANDORINHAS",
	"Neighbourhood_ANTNIO_HONRIO",
	"Neighbourhood_ARIOVALDO_FAVALESSA",
	"Neighbourhood_BARRO_VERMELHO",
	"Neighbourhood_BELA_VISTA",
	"Neighbourhood_BENTO_FERREIRA",
	"Neighbourhood_BOA_VISTA",
	"Neighbourhood_BONFIM",
	"Neighbourhood_CARATORA",
	"Neighbourhood_CENTRO",
	"Neighbourhood_COMDUSA",
	"Neighbourhood_CONQUISTA",
	"Neighbourhood_CONSOLAO",
	"Neighbourhood_CRUZAMENTO",
	"Neighbourhood_DA_PENHA",
	"Neighbourhood_DE_LOURDES",
	"Neighbourhood_DO_CABRAL",
	"Neighbourhood_DO_MOSCOSO",
	"Neighbourhood_DO_QUADRO",
	"Neighbourhood_ENSEADA_DO_SU",
	"Neighbourhood_ESTRELINHA",
	"Neighbourhood_FONTE_GRANDE",
	"Neighbourhood_FORTE_SO_JOO",
	"Neighbourhood_FRADINHOS",
	"Neighbourhood_GOIABEIRAS",
	"Neighbourhood_GRANDE_VITRIA",
	"Neighbourhood_GURIGICA",
	"Neighbourhood_HORTO",
	"Neighbourhood_ILHA_DAS_CAIEIRAS",
	"Neighbourhood_ILHA_DE_SANTA_MARIA",
	"Neighbourhood_ILHA_DO_BOI",
	"Neighbourhood_ILHA_DO_FRADE",
	"Neighbourhood_ILHA_DO_PRNCIPE",
	"Neighbourhood_ILHAS_OCENICAS_DE_TRINDADE",
	"Neighbourhood_INHANGUET",
	"Neighbourhood_ITARAR",
	"Neighbourhood_JABOUR",
	"Neighbourhood_JARDIM_CAMBURI",
	"Neighbourhood_JARDIM_DA_PENHA",
	"Neighbourhood_JESUS_DE_NAZARETH",
	"Neighbourhood_JOANA_DARC",
	"Neighbourhood_JUCUTUQUARA",
	"Neighbourhood_MARIA_ORTIZ",
	"Neighbourhood_MARUPE",
	"Neighbourhood_MATA_DA_PRAIA",
	"Neighbourhood_MONTE_BELO",
	"Neighbourhood_MORADA_DE_CAMBURI",
	"Neighbourhood_MRIO_CYPRESTE",
	"Neighbourhood_NAZARETH",
	"Neighbourhood_NOVA_PALESTINA",
	"Neighbourhood_PARQUE_INDUSTRIAL",
	"Neighbourhood_PARQUE_MOSCOSO",
	"Neighbourhood_PIEDADE",
	"Neighbourhood_PONTAL_DE_CAMBURI",
	"Neighbourhood_PRAIA_DO_CANTO",
	"Neighbourhood_PRAIA_DO_SU",
	"Neighbourhood_REDENO",
	"Neighbourhood_REPBLICA",
	"Neighbourhood_RESISTNCIA",
	"Neighbourhood_ROMO",
	"Neighbourhood_SANTA_CECLIA",
	"Neighbourhood_SANTA_CLARA",
	"Neighbourhood_SANTA_HELENA",
	"Neighbourhood_SANTA_LUZA",
	"Neighbourhood_SANTA_LCIA",
	"Neighbourhood_SANTA_MARTHA",
	"Neighbourhood_SANTA_TEREZA",
	"Neighbourhood_SANTO_ANDR",
	"Neighbourhood_SANTO_ANTNIO",
	"Neighbourhood_SANTOS_DUMONT",
	"Neighbourhood_SANTOS_REIS",
	"Neighbourhood_SEGURANA_DO_LAR",
	"Neighbourhood_SOLON_BORGES",
	"Neighbourhood_SO_BENEDITO",
	"Neighbourhood_SO_CRISTVO",
	"Neighbourhood_SO_JOS",
	"Neighbourhood_SO_PEDRO",
	"Neighbourhood_TABUAZEIRO",
	"Neighbourhood_UNIVERSITRIO",
	"Neighbourhood_VILA_RUBIM",
}

var knownKeys = buildKnownKeys()

func buildKnownKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(clinicalKeys)+len(neighbourhoodKeys))
	for _, k := range clinicalKeys {
		keys[k] = struct{}{}
	}
	for _, k := range neighbourhoodKeys {
		keys[k] = struct{}{}
	}
	return keys
}

// FeatureCount is the exact vector width the model expects.
const FeatureCount = 98

// Normalize returns a complete feature vector: absent keys default to zero.
// Missing-feature handling happens here, at the adapter boundary, never
// inside the scheduler.
func (f Features) Normalize() Features {
	out := make(Features, FeatureCount)
	for key := range knownKeys {
		out[key] = f[key]
	}
	return out
}

// Validate rejects vectors carrying keys the model was not trained on.
func (f Features) Validate() error {
	for key := range f {
		if _, ok := knownKeys[key]; !ok {
			return fmt.Errorf("ml: unknown feature key %q", key)
		}
	}
	return nil
}

// SetNeighbourhood flips on the one-hot indicator for a neighborhood,
// clearing all others. Unknown names leave every indicator at zero.
func (f Features) SetNeighbourhood(name string) bool {
	for _, key := range neighbourhoodKeys {
		f[key] = 0
	}
	key := "Neighbourhood_" + strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	if _, ok := knownKeys[key]; !ok {
		return false
	}
	f[key] = 1
	return true
}
