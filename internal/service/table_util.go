package service

import (
	"culprit-hunt/internal/service/dto"
	"culprit-hunt/internal/service/game"
)

// publicRole 返回某个身份在当前阶段能否公开展示。
// 查看阶段全部隐藏，指认阶段只公开侦探和管家，结算后全部公开。
func publicRole(rs *game.RoundState, role game.Role) string {
	switch rs.Phase() {
	case game.PHASE_RESOLVED:
		return string(role)
	case game.PHASE_ACCUSING:
		if role == game.ROLE_INVESTIGATOR || role == game.ROLE_FIXER {
			return string(role)
		}
	}

	return ""
}

func toSeasonSnapshot(snap game.SnapshotResponse) dto.SeasonSnapshot {
	season := &snap.Season

	out := dto.SeasonSnapshot{
		SeasonID: season.ID,
		Started:  season.Started(),
		Ended:    season.Ended,
		Stage:    snap.Stage,
		Viewing:  snap.Viewing,
		Players:  make([]dto.PlayerView, 0, game.PLAYER_COUNT),
		Rounds:   make([]dto.RoundView, 0, season.Current+1),
		Badges:   toBadgeViews(season),
	}

	if !snap.Deadline.IsZero() {
		deadline := snap.Deadline
		out.Deadline = &deadline
	}

	current := season.CurrentRound()
	if current == nil {
		return out
	}

	out.CurrentRound = current.Number
	out.RoundType = string(current.Type)

	for i, name := range season.Names {
		stats := season.Stats[i]

		out.Players = append(out.Players, dto.PlayerView{
			ID:     i,
			Name:   name,
			Total:  current.Players[i].CumulativeScore,
			Role:   publicRole(current, current.Players[i].Role),
			Viewed: current.Viewers[i],
			Stats: dto.StatsView{
				InvestigatorCorrect: stats.InvestigatorCorrect,
				InvestigatorWrong:   stats.InvestigatorWrong,
				CulpritEscaped:      stats.CulpritEscaped,
				CulpritCaught:       stats.CulpritCaught,
				FixerRoleCount:      stats.FixerRoleCount,
				Streak:              season.Streaks[i],
			},
		})
	}

	// 只展示已经开始的轮次
	for i := 0; i <= season.Current; i++ {
		out.Rounds = append(out.Rounds, toRoundView(&season.Rounds[i], season.Names))
	}

	if winners, ok := game.Winners(*season); ok {
		out.Winners = winners
	}

	return out
}

func toRoundView(rs *game.RoundState, names [game.PLAYER_COUNT]string) dto.RoundView {
	view := dto.RoundView{
		Number:  rs.Number,
		Type:    string(rs.Type),
		Phase:   string(rs.Phase()),
		Outcome: string(rs.Outcome),
		Players: make([]dto.RoundPlayerView, 0, game.PLAYER_COUNT),
	}

	if rs.Accusation != nil {
		accused := *rs.Accusation
		view.Accused = &accused
	}

	for _, p := range rs.Players {
		view.Players = append(view.Players, dto.RoundPlayerView{
			ID:         p.PlayerID,
			Name:       names[p.PlayerID],
			Role:       publicRole(rs, p.Role),
			RoundScore: p.RoundScore,
			Total:      p.CumulativeScore,
		})
	}

	return view
}

func toBadgeViews(season *game.SeasonState) []dto.BadgeView {
	views := make([]dto.BadgeView, 0, len(season.Badges))

	for _, kind := range game.BadgeKinds {
		holder, ok := season.Badges[kind]
		if !ok {
			continue
		}

		detail, _ := game.BadgeInfo(kind)
		views = append(views, dto.BadgeView{
			Kind:        string(kind),
			PlayerID:    holder,
			PlayerName:  season.Names[holder],
			Title:       detail.Title,
			Description: detail.Description,
			FlavorKey:   kind.FlavorKey(),
		})
	}

	return views
}

func toRoleView(resp game.OpenRoleResponse) dto.RoleView {
	return dto.RoleView{
		PlayerID:  resp.PlayerID,
		Name:      resp.Name,
		Role:      string(resp.Role),
		Round:     resp.Round,
		RoundType: string(resp.RoundType),
		Deadline:  resp.Deadline,
	}
}
