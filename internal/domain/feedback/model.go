package feedback

import "time"

type Rating struct {
	ID        int64
	SessionID string
	Channel   string // "tg" | "web"
	Score     int    // 1..5
	CreatedAt time.Time
}

// Summary — агрегат по каналу для отчёта.
type Summary struct {
	Channel string
	Count   int
	Average float64
}
