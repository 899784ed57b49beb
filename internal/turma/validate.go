package turma

import (
	"sort"
	"strings"
	"time"
)

// Normalize valida o payload e devolve a turma pronta para persistir.
func Normalize(in Input) (Turma, error) {
	fields := map[string]string{}
	t := Turma{
		Name:         strings.TrimSpace(in.Name),
		ScheduleTime: strings.TrimSpace(in.ScheduleTime),
		Weekdays:     []int{},
	}

	if t.Name == "" {
		fields["name"] = "obrigatório"
	}
	if t.ScheduleTime == "" {
		fields["schedule_time"] = "obrigatório"
	} else if parsed, err := time.Parse("15:04", t.ScheduleTime); err != nil {
		fields["schedule_time"] = "use o formato HH:MM"
	} else {
		t.ScheduleTime = parsed.Format("15:04")
	}

	kind, ok := ParseKind(in.Kind)
	if !ok {
		fields["kind"] = "deve ser single-date ou recurring"
	}
	t.Kind = kind

	switch kind {
	case KindSingleDate:
		date := strings.TrimSpace(in.Date)
		if date == "" {
			fields["date"] = "obrigatório para turma de data única"
		} else if _, err := time.Parse("2006-01-02", date); err != nil {
			fields["date"] = "use o formato YYYY-MM-DD"
		} else {
			t.Date = &date
		}
	case KindRecurring:
		days, msg := normalizeWeekdays(in.Weekdays)
		if msg != "" {
			fields["weekdays"] = msg
		}
		t.Weekdays = days
	}

	if len(fields) > 0 {
		return Turma{}, &ValidationError{Fields: fields}
	}
	return t, nil
}

func normalizeWeekdays(in []int) ([]int, string) {
	if len(in) == 0 {
		return nil, "informe ao menos um dia da semana"
	}
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, d := range in {
		if d < 0 || d > 6 {
			return nil, "dias devem estar entre 0 (domingo) e 6 (sábado)"
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out, ""
}
