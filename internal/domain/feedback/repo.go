package feedback

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Add(ctx context.Context, rt Rating) (*Rating, error) {
	if rt.Score < 1 || rt.Score > 5 {
		return nil, fmt.Errorf("score %d out of range 1..5", rt.Score)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agent_ratings (session_id, channel, score)
		VALUES ($1,$2,$3)
		RETURNING id, session_id, channel, score, created_at
	`, rt.SessionID, rt.Channel, rt.Score)
	var out Rating
	if err := row.Scan(&out.ID, &out.SessionID, &out.Channel, &out.Score, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summaries — количество и средняя оценка по каналам.
func (r *Repo) Summaries(ctx context.Context) ([]Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT channel, COUNT(*), AVG(score)::float8
		FROM agent_ratings
		GROUP BY channel
		ORDER BY channel
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Channel, &s.Count, &s.Average); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
