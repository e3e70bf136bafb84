package eventservice

import (
	"bytes"
	"context"
	"fmt"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/results"
	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"github.com/xuri/excelize/v2"
)

const (
	rosterSheet    = "Roster"
	responsesSheet = "Responses"
)

type bytesResult = results.OperationResult[[]byte, error]

// ExportRoster renders the event's slots and responses as an xlsx workbook.
func (s *EventService) ExportRoster(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]byte, error) {
	return unwrap(withTelemetry(s, ctx, "ExportRoster", eventID.String(), func(ctx context.Context) (bytesResult, error) {
		event, fail, err := s.visibleEvent(ctx, caller, eventID)
		if err != nil {
			return bytesResult{}, err
		}
		if fail != nil {
			return failure[[]byte](fail), nil
		}

		slots, err := s.repo.ListSlots(ctx, nil, eventID, s.canManageSlots(caller, event))
		if err != nil {
			return bytesResult{}, err
		}
		metas, err := s.repo.ListAcceptances(ctx, nil, eventID)
		if err != nil {
			return bytesResult{}, err
		}
		names, err := s.nicknames(ctx, slots, metas)
		if err != nil {
			return bytesResult{}, err
		}

		data, err := buildRosterWorkbook(slots, metas, names)
		if err != nil {
			return bytesResult{}, err
		}
		return success(data), nil
	}))
}

func (s *EventService) nicknames(ctx context.Context, slots []*eventdb.EventSlot, metas []*eventdb.UserEventMeta) (map[uuid.UUID]string, error) {
	if s.users == nil {
		return map[uuid.UUID]string{}, nil
	}
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(metas))
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, slot := range slots {
		if slot.IsAssigned() {
			add(*slot.AssignedUserID)
		}
	}
	for _, m := range metas {
		add(m.UserID)
	}
	return s.users.Nicknames(ctx, ids)
}

func displayName(names map[uuid.UUID]string, id uuid.UUID) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id.String()
}

func buildRosterWorkbook(slots []*eventdb.EventSlot, metas []*eventdb.UserEventMeta, names map[uuid.UUID]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), rosterSheet); err != nil {
		return nil, fmt.Errorf("failed to name roster sheet: %w", err)
	}
	if _, err := f.NewSheet(responsesSheet); err != nil {
		return nil, fmt.Errorf("failed to add responses sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	acceptance := make(map[uuid.UUID]eventdomain.AcceptanceStatus, len(metas))
	for _, m := range metas {
		acceptance[m.UserID] = m.Acceptance
	}

	rosterRows := [][]any{{"Slot", "Group", "Side", "Role", "Player", "Response"}}
	for _, slot := range slots {
		player, response := "", ""
		if slot.IsAssigned() {
			player = displayName(names, *slot.AssignedUserID)
			response = string(acceptance[*slot.AssignedUserID])
		}
		rosterRows = append(rosterRows, []any{slot.SlotNumber, slot.GroupName, slot.Side, slot.Title, player, response})
	}

	responseRows := [][]any{{"Player", "Response"}}
	for _, m := range metas {
		responseRows = append(responseRows, []any{displayName(names, m.UserID), string(m.Acceptance)})
	}

	for sheet, rows := range map[string][][]any{rosterSheet: rosterRows, responsesSheet: responseRows} {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
			}
		}
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return nil, fmt.Errorf("failed to style %s header: %w", sheet, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// -----------------------------------------------------------------------------
// Attendance chart
// -----------------------------------------------------------------------------

var (
	chartBackground = drawing.ColorFromHex("1e1f22")
	chartText       = drawing.ColorFromHex("dbdee1")
	tallyColors     = map[eventdomain.AcceptanceStatus]drawing.Color{
		eventdomain.AcceptanceAccepted: drawing.ColorFromHex("3ba55c"),
		eventdomain.AcceptanceMaybe:    drawing.ColorFromHex("faa61a"),
		eventdomain.AcceptanceRejected: drawing.ColorFromHex("ed4245"),
	}
)

// AttendanceChart renders the event's tallies as a PNG bar chart.
func (s *EventService) AttendanceChart(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]byte, error) {
	return unwrap(withTelemetry(s, ctx, "AttendanceChart", eventID.String(), func(ctx context.Context) (bytesResult, error) {
		event, fail, err := s.visibleEvent(ctx, caller, eventID)
		if err != nil {
			return bytesResult{}, err
		}
		if fail != nil {
			return failure[[]byte](fail), nil
		}
		data, err := renderAttendanceChart(event.Title, event.Tally())
		if err != nil {
			return bytesResult{}, err
		}
		return success(data), nil
	}))
}

func renderAttendanceChart(title string, tally eventdomain.Tally) ([]byte, error) {
	bars := make([]chart.Value, 0, len(eventdomain.AllAcceptanceStatuses))
	for _, status := range eventdomain.AllAcceptanceStatuses {
		bars = append(bars, chart.Value{
			Label: string(status),
			Value: float64(tally.Get(status)),
			Style: chart.Style{
				FillColor:   tallyColors[status],
				StrokeColor: tallyColors[status],
			},
		})
	}

	yAxis := chart.YAxis{Style: chart.Style{FontColor: chartText}}
	if tally.Total() == 0 {
		// An all-zero range cannot be drawn.
		title += " (no responses yet)"
		yAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	}

	graph := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: chartText},
		Width:      600,
		Height:     400,
		BarWidth:   80,
		Background: chart.Style{FillColor: chartBackground},
		Canvas:     chart.Style{FillColor: chartBackground},
		XAxis:      chart.Style{FontColor: chartText},
		YAxis:      yAxis,
		Bars:       bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render attendance chart: %w", err)
	}
	return buffer.Bytes(), nil
}
