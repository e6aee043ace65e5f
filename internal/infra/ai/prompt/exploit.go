package prompt

import (
	"fmt"

	"github.com/bryanwahyu/exploitsearch/internal/domain/exploits"
)

// header holds the fixed instructions: language, output format and the six
// required sections of the analysis.
const header = `Stwórz szczegółową analizę bezpieczeństwa w języku polskim. 
Odpowiedz wyłącznie w formacie HTML (bez markdown), uwzględnij to że mój program 
działa w ciemnym trybie. 
Uwzględnij:

1. Potencjalne wektory ataku
2. Ocenę ryzyka dla aktualnych systemów (1-10)
3. Przykładowe użycie exploita
4. Zwalczanie exploita
5. Możliwości wykrywania
6. Zalecenia dotyczące zabezpieczeń

`

// ForExploit builds the analysis prompt for one record. The output depends
// only on the record, so repeated calls are byte-identical.
func ForExploit(r exploits.Record) string {
	return header + fmt.Sprintf(`Dane exploita:
- ID: %s
- CVEs: %s
- Platforma: %s
- Typ: %s
- Opis: %s
- Data publikacji: %s
- Autor: %s`,
		r.ExploitID(),
		r.Signatures,
		r.Platform,
		r.Type,
		r.Description,
		r.Date,
		r.Author,
	)
}
