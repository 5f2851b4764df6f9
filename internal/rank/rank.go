package rank

// Paliers de classement par points cumulés. Le palier retenu est le plus
// haut seuil inférieur ou égal au total. Legend n'a pas de plafond.
const (
	TierBeginner     = "Beginner"
	TierIntermediate = "Intermediate"
	TierAdvanced     = "Advanced"
	TierExpert       = "Expert"
	TierMaster       = "Master"
	TierLegend       = "Legend"
)

type threshold struct {
	tier   string
	points int
}

// Ordre croissant, parcouru en sens inverse par TierForPoints
var thresholds = []threshold{
	{TierBeginner, 0},
	{TierIntermediate, 50},
	{TierAdvanced, 100},
	{TierExpert, 250},
	{TierMaster, 500},
	{TierLegend, 1000},
}

// legendNextTarget n'est pas un septième palier, uniquement une valeur
// d'affichage pour la barre de progression des Legend
const legendNextTarget = 2000

// TierForPoints classe un total de points. Seule fonction de classement du
// moteur : le profil et le leaderboard passent tous les deux par ici.
func TierForPoints(totalPoints int) string {
	for i := len(thresholds) - 1; i >= 0; i-- {
		if totalPoints >= thresholds[i].points {
			return thresholds[i].tier
		}
	}
	return TierBeginner
}

// NextTarget renvoie le seuil de points du palier suivant, ou la valeur
// d'affichage pour les Legend
func NextTarget(totalPoints int) int {
	for _, t := range thresholds {
		if totalPoints < t.points {
			return t.points
		}
	}
	return legendNextTarget
}
