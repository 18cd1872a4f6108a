package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dotalytics/dota-ingest/internal/domain/match"
	"github.com/dotalytics/dota-ingest/internal/platform/logging"
)

const unknownIdentity = "unknown"

// Normalizer flattens a raw match document into relational records. It
// fails closed on the core fields and logs-and-skips malformed optional
// sub-records, so one broken teamfight never discards a whole match.
type Normalizer struct {
	validate *validator.Validate
	logger   *logging.Logger
}

func NewNormalizer(logger *logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Normalizer{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

func (n *Normalizer) Normalize(ctx context.Context, doc ExternalMatchDetail) (match.RecordSet, error) {
	if err := n.validate.Struct(doc); err != nil {
		return match.RecordSet{}, fmt.Errorf("%w: match document is missing core fields: %v", ErrValidation, err)
	}

	matchID := *doc.MatchID
	if matchID <= 0 {
		return match.RecordSet{}, fmt.Errorf("%w: match id must be greater than zero", ErrValidation)
	}
	radiantWin := *doc.RadiantWin

	out := match.RecordSet{
		Match: match.Match{
			MatchID:       matchID,
			LeagueID:      doc.LeagueID,
			RadiantTeamID: doc.RadiantTeam.TeamID,
			DireTeamID:    doc.DireTeam.TeamID,
			StartTime:     time.Unix(*doc.StartTime, 0).UTC(),
			Duration:      *doc.Duration,
			RadiantScore:  doc.RadiantScore,
			DireScore:     doc.DireScore,
			RadiantWin:    radiantWin,
			SeriesID:      doc.SeriesID,
			SeriesType:    doc.SeriesType,
			GameVersion:   doc.GameVersion,
			Patch:         doc.Patch,
			Region:        doc.Region,
		},
		LeagueID:   doc.LeagueID,
		LeagueName: fallbackIdentity(doc.LeagueName),
		LeagueTier: fallbackIdentity(doc.LeagueTier),
	}

	out.Teams = normalizeTeamRefs(doc)

	heroSeen := make(map[int]struct{}, len(doc.Players))
	for _, p := range doc.Players {
		if p.PlayerSlot == nil {
			// Player rows feed the core metrics table; a row without a
			// slot cannot be attributed to a side, so the document is
			// rejected rather than silently dropped.
			return match.RecordSet{}, fmt.Errorf("%w: match %d has a player entry without player_slot", ErrValidation, matchID)
		}
		if p.AccountID <= 0 {
			n.logger.DebugContext(ctx, "skip anonymous player", "match_id", matchID, "player_slot", *p.PlayerSlot)
			continue
		}

		slot := *p.PlayerSlot
		isRadiant := match.IsRadiantSlot(slot)
		metric := match.PlayerMetric{
			MatchID:       matchID,
			AccountID:     p.AccountID,
			HeroID:        p.HeroID,
			PlayerSlot:    slot,
			IsRadiant:     isRadiant,
			Win:           isRadiant == radiantWin,
			Kills:         p.Kills,
			Deaths:        p.Deaths,
			Assists:       p.Assists,
			LastHits:      p.LastHits,
			Denies:        p.Denies,
			GoldPerMin:    p.GoldPerMin,
			XPPerMin:      p.XPPerMin,
			Level:         p.Level,
			NetWorth:      p.NetWorth,
			HeroDamage:    p.HeroDamage,
			TowerDamage:   p.TowerDamage,
			HeroHealing:   p.HeroHealing,
			ObsPlaced:     p.ObsPlaced,
			SenPlaced:     p.SenPlaced,
			Stuns:         p.Stuns,
			TeamfightPart: p.Teamfight,
			Lane:          p.Lane,
			LaneRole:      p.LaneRole,
		}
		applyBenchmarks(&metric, p.Benchmarks)
		out.PlayerMetrics = append(out.PlayerMetrics, metric)

		teamID := doc.DireTeam.TeamID
		if isRadiant {
			teamID = doc.RadiantTeam.TeamID
		}
		out.Players = append(out.Players, match.PlayerRef{
			AccountID:   p.AccountID,
			Name:        p.Name,
			PersonaName: p.PersonaName,
			CountryCode: fallbackIdentity(p.CountryCode),
			TeamID:      teamID,
		})

		if p.HeroID > 0 {
			if _, ok := heroSeen[p.HeroID]; !ok {
				heroSeen[p.HeroID] = struct{}{}
				out.Heroes = append(out.Heroes, match.HeroRef{HeroID: p.HeroID})
			}
		}

		out.TimeSeries = append(out.TimeSeries, normalizeTimeSeries(matchID, p)...)
	}

	for _, d := range doc.DraftTimings {
		if d.HeroID <= 0 {
			n.logger.WarnContext(ctx, "skip malformed draft timing", "match_id", matchID, "draft_order", d.Order)
			continue
		}
		out.DraftTimings = append(out.DraftTimings, match.DraftTiming{
			MatchID:        matchID,
			DraftOrder:     d.Order,
			Pick:           d.Pick,
			ActiveTeam:     d.ActiveTeam,
			HeroID:         d.HeroID,
			PlayerSlot:     d.PlayerSlot,
			ExtraTime:      d.ExtraTime,
			TotalTimeTaken: d.TotalTimeTaken,
		})
		if _, ok := heroSeen[d.HeroID]; !ok {
			heroSeen[d.HeroID] = struct{}{}
			out.Heroes = append(out.Heroes, match.HeroRef{HeroID: d.HeroID})
		}
	}

	for i, tf := range doc.TeamFights {
		if tf.End < tf.Start || (len(tf.Players) > 0 && len(tf.Players) != len(doc.Players)) {
			n.logger.WarnContext(ctx, "skip malformed teamfight", "match_id", matchID, "fight_index", i)
			continue
		}
		out.TeamFights = append(out.TeamFights, match.TeamFight{
			MatchID:    matchID,
			FightIndex: i,
			Start:      tf.Start,
			End:        tf.End,
			LastDeath:  tf.LastDeath,
			Deaths:     tf.Deaths,
		})
		for j, tfp := range tf.Players {
			source := doc.Players[j]
			if source.PlayerSlot == nil || source.AccountID <= 0 {
				continue
			}
			if tfp.Deaths == 0 && tfp.Buybacks == 0 && tfp.Damage == 0 && tfp.Healing == 0 && tfp.GoldDelta == 0 && tfp.XPDelta == 0 {
				continue
			}
			out.TeamFightPlayers = append(out.TeamFightPlayers, match.TeamFightPlayer{
				MatchID:    matchID,
				FightIndex: i,
				AccountID:  source.AccountID,
				PlayerSlot: *source.PlayerSlot,
				Deaths:     tfp.Deaths,
				Buybacks:   tfp.Buybacks,
				Damage:     tfp.Damage,
				Healing:    tfp.Healing,
				GoldDelta:  tfp.GoldDelta,
				XPDelta:    tfp.XPDelta,
			})
		}
	}

	seq := 0
	for _, obj := range doc.Objectives {
		if obj.Type == "" {
			n.logger.WarnContext(ctx, "skip malformed objective", "match_id", matchID, "seq", seq)
			continue
		}
		out.Objectives = append(out.Objectives, match.Objective{
			MatchID:    matchID,
			Seq:        seq,
			Time:       obj.Time,
			Type:       obj.Type,
			PlayerSlot: obj.PlayerSlot,
			Key:        obj.Key,
			Team:       obj.Team,
		})
		seq++
	}

	chatSeq := 0
	for _, evt := range doc.Chat {
		if evt.Type != "chatwheel" || evt.Key == "" {
			continue
		}
		out.ChatWheelEvents = append(out.ChatWheelEvents, match.ChatWheelEvent{
			MatchID:    matchID,
			Seq:        chatSeq,
			Time:       evt.Time,
			PlayerSlot: evt.PlayerSlot,
			Key:        evt.Key,
		})
		chatSeq++
	}

	return out, nil
}

func normalizeTeamRefs(doc ExternalMatchDetail) []match.TeamRef {
	out := make([]match.TeamRef, 0, 2)
	for _, t := range []ExternalTeam{doc.RadiantTeam, doc.DireTeam} {
		if t.TeamID <= 0 {
			continue
		}
		out = append(out, match.TeamRef{
			TeamID:  t.TeamID,
			Name:    fallbackIdentity(t.Name),
			Tag:     t.Tag,
			LogoURL: t.LogoURL,
		})
	}
	return out
}

// normalizeTimeSeries turns the minute-resolution arrays into snapshot
// rows, one per metric per sample, preserving source order.
func normalizeTimeSeries(matchID int64, p ExternalMatchPlayer) []match.TimeSeriesSnapshot {
	if len(p.Times) == 0 {
		return nil
	}

	kinds := []struct {
		kind   string
		values []int
	}{
		{match.MetricGold, p.GoldT},
		{match.MetricLastHits, p.LhT},
		{match.MetricDenies, p.DnT},
		{match.MetricXP, p.XpT},
	}

	out := make([]match.TimeSeriesSnapshot, 0, len(p.Times)*len(kinds))
	for i, offset := range p.Times {
		for _, k := range kinds {
			if i >= len(k.values) {
				continue
			}
			out = append(out, match.TimeSeriesSnapshot{
				MatchID:    matchID,
				AccountID:  p.AccountID,
				TimeOffset: offset,
				MetricKind: k.kind,
				Value:      k.values[i],
			})
		}
	}
	return out
}

func applyBenchmarks(metric *match.PlayerMetric, benchmarks map[string]ExternalBenchmark) {
	if metric == nil || len(benchmarks) == 0 {
		return
	}
	targets := map[string]*float64{
		"gold_per_min":         &metric.BenchGoldPerMinPct,
		"xp_per_min":           &metric.BenchXPPerMinPct,
		"kills_per_min":        &metric.BenchKillsPerMinPct,
		"last_hits_per_min":    &metric.BenchLastHitsPct,
		"hero_damage_per_min":  &metric.BenchHeroDamagePct,
		"hero_healing_per_min": &metric.BenchHeroHealingPct,
		"tower_damage":         &metric.BenchTowerDamagePct,
	}
	for key, target := range targets {
		if bench, ok := benchmarks[key]; ok && bench.Pct != nil {
			*target = *bench.Pct
		}
	}
}

func fallbackIdentity(value string) string {
	if value == "" {
		return unknownIdentity
	}
	return value
}
