package checkin

import (
	"time"

	"github.com/gestaozabele/checkin/internal/turma"
	"github.com/gestaozabele/checkin/internal/util"
)

// Window define o recorte de created_at exibido na listagem.
type Window struct {
	All  bool
	From time.Time
	To   time.Time
}

// WindowFor aplica a regra de visibilidade: turma de data única mostra todo o histórico;
// turma recorrente, e a listagem geral, só mostram checkins criados no dia corrente.
func WindowFor(kind turma.Kind, now time.Time, loc *time.Location) Window {
	if kind == turma.KindSingleDate {
		return Window{All: true}
	}
	from, to := util.DayBounds(now, loc)
	return Window{From: from, To: to}
}
