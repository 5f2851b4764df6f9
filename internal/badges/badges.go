package badges

import (
	"context"

	model "github.com/EcoTrackTeam/EcoTrack-backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// Catalogue fermé de badges. Chaque règle est un prédicat pur sur les
// compteurs agrégés de l'utilisateur. Un badge accordé n'est jamais révoqué,
// même si la statistique redescend (un streak cassé ne retire pas week_streak).
type Rule struct {
	model.Badge
	Satisfied func(stats model.UserStats) bool
}

var catalog = []Rule{
	{
		Badge:     model.Badge{ID: "first_challenge", Name: "Premier pas", Description: "Rejoindre son premier challenge", Category: "milestone"},
		Satisfied: func(s model.UserStats) bool { return s.TotalChallengesJoined >= 1 },
	},
	{
		Badge:     model.Badge{ID: "challenger_5", Name: "Engagé", Description: "Rejoindre 5 challenges", Category: "milestone"},
		Satisfied: func(s model.UserStats) bool { return s.TotalChallengesJoined >= 5 },
	},
	{
		Badge:     model.Badge{ID: "challenger_10", Name: "Assidu", Description: "Rejoindre 10 challenges", Category: "milestone"},
		Satisfied: func(s model.UserStats) bool { return s.TotalChallengesJoined >= 10 },
	},
	{
		Badge:     model.Badge{ID: "challenger_25", Name: "Persévérant", Description: "Rejoindre 25 challenges", Category: "milestone"},
		Satisfied: func(s model.UserStats) bool { return s.TotalChallengesJoined >= 25 },
	},
	{
		Badge:     model.Badge{ID: "challenger_50", Name: "Inépuisable", Description: "Rejoindre 50 challenges", Category: "milestone"},
		Satisfied: func(s model.UserStats) bool { return s.TotalChallengesJoined >= 50 },
	},
	{
		Badge:     model.Badge{ID: "first_completion", Name: "Première victoire", Description: "Terminer son premier challenge", Category: "completion"},
		Satisfied: func(s model.UserStats) bool { return s.TotalChallengesCompleted >= 1 },
	},
	{
		Badge:     model.Badge{ID: "finisher_10", Name: "Finisseur", Description: "Terminer 10 challenges", Category: "completion"},
		Satisfied: func(s model.UserStats) bool { return s.TotalChallengesCompleted >= 10 },
	},
	{
		Badge:     model.Badge{ID: "week_streak", Name: "Une semaine sans faute", Description: "7 jours consécutifs d'activité", Category: "streak"},
		Satisfied: func(s model.UserStats) bool { return s.CurrentStreak >= 7 },
	},
	{
		Badge:     model.Badge{ID: "month_streak", Name: "Un mois sans faute", Description: "30 jours consécutifs d'activité", Category: "streak"},
		Satisfied: func(s model.UserStats) bool { return s.CurrentStreak >= 30 },
	},
	{
		Badge:     model.Badge{ID: "points_100", Name: "Centurion", Description: "Cumuler 100 points", Category: "points"},
		Satisfied: func(s model.UserStats) bool { return s.TotalPoints >= 100 },
	},
	{
		Badge:     model.Badge{ID: "points_500", Name: "Demi-millier", Description: "Cumuler 500 points", Category: "points"},
		Satisfied: func(s model.UserStats) bool { return s.TotalPoints >= 500 },
	},
	{
		Badge:     model.Badge{ID: "points_1000", Name: "Légende verte", Description: "Cumuler 1000 points", Category: "points"},
		Satisfied: func(s model.UserStats) bool { return s.TotalPoints >= 1000 },
	},
}

// All renvoie le catalogue complet
func All() []model.Badge {
	result := make([]model.Badge, 0, len(catalog))
	for _, rule := range catalog {
		result = append(result, rule.Badge)
	}
	return result
}

// ByID retrouve un badge du catalogue
func ByID(id string) (model.Badge, bool) {
	for _, rule := range catalog {
		if rule.Badge.ID == id {
			return rule.Badge, true
		}
	}
	return model.Badge{}, false
}

// Evaluate renvoie les IDs de badges dont la règle est satisfaite par les
// stats courantes. Fonction pure, sans accès base.
func Evaluate(stats model.UserStats) []string {
	var earned []string
	for _, rule := range catalog {
		if rule.Satisfied(stats) {
			earned = append(earned, rule.Badge.ID)
		}
	}
	return earned
}

// executor couvre pgxpool.Pool et pgx.Tx
type executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// EvaluateAndGrant évalue les règles et accorde les badges manquants.
// L'upsert ON CONFLICT DO NOTHING rend l'opération idempotente : une double
// invocation pour le même événement n'accorde rien deux fois.
func EvaluateAndGrant(ctx context.Context, db executor, userID string, stats model.UserStats) ([]string, error) {
	var granted []string
	for _, id := range Evaluate(stats) {
		tag, err := db.Exec(ctx, `
			INSERT INTO user_badges(user_id, badge_id, earned_at)
			VALUES($1, $2, NOW())
			ON CONFLICT (user_id, badge_id) DO NOTHING
		`, userID, id)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() > 0 {
			granted = append(granted, id)
		}
	}
	return granted, nil
}
