package events

// MatchResult é publicado no tópico "match_results" quando uma partida é encerrada.
type MatchResult struct {
	Type    string `json:"type"` // "match_result"
	MatchID string `json:"match_id"`
	Result  string `json:"result"` // "home" | "draw" | "away"
}
