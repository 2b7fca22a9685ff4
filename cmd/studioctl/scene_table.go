package main

import (
	"fmt"
	"strconv"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func sceneRows(scenes []model.Scene) [][]string {
	rows := make([][]string, 0, len(scenes))
	for _, sc := range scenes {
		detail := sc.ResolvedURL()
		if sc.LastError != "" {
			detail = sc.LastError
		}
		if detail == "" {
			detail = truncate(sc.Script, 48)
		}
		rows = append(rows, []string{
			strconv.Itoa(sc.Index),
			string(sc.VisualType),
			formatSeconds(sc.StartTime),
			formatSeconds(sc.EndTime),
			formatSeconds(sc.Duration),
			string(sc.Status),
			detail,
		})
	}
	return rows
}

func renderScenes(scenes []model.Scene) string {
	return renderTable(
		[]string{"#", "Type", "Start", "End", "Dur", "Status", "Detail"},
		sceneRows(scenes),
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func memorySummary(mem *model.ProjectMemory) string {
	if mem == nil {
		return ""
	}
	return fmt.Sprintf("workflow %s: %d/%d completed, %d failed", mem.WorkflowStatus, mem.CompletedCount, mem.TotalScenes, mem.FailedCount)
}

func stepLine(res *model.StepResult) string {
	switch res.Outcome {
	case model.StepIdle:
		return fmt.Sprintf("nothing to do (workflow %s)", res.WorkflowStatus)
	case model.StepContended:
		return fmt.Sprintf("scene %d is being processed elsewhere", res.SceneIndex)
	case model.StepSuperseded:
		return fmt.Sprintf("scene %d changed while generating, result dropped (%d pending)", res.SceneIndex, res.Pending)
	case model.StepCompleted:
		return fmt.Sprintf("scene %d completed: %s (%d pending)", res.SceneIndex, res.AssetURL, res.Pending)
	default:
		return fmt.Sprintf("scene %d %s: %s (%d pending)", res.SceneIndex, res.Outcome, res.Error, res.Pending)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
