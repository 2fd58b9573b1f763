package scheduler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/env"
)

// postBackupHook notifies an external backup/export endpoint that the sweep
// committed. Strictly best-effort: the sweep result stands whether or not
// the hook answers.
func (s *Scheduler) postBackupHook(summary *SweepSummary) {
	if env.GetEnv("BACKUP_HOOK_ENABLED", "false") != "true" {
		return
	}
	url := env.GetEnv("BACKUP_HOOK_URL", "")
	if url == "" {
		log.Warn("[Scheduler] backup hook enabled but BACKUP_HOOK_URL is empty")
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"event":   "sweep_completed",
		"at":      s.clock.Now().In(s.loc).Format(time.RFC3339),
		"summary": summary,
	})
	if err != nil {
		log.Errorf("[Scheduler] backup hook marshal: %v", err)
		return
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Warnf("[Scheduler] backup hook failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Warnf("[Scheduler] backup hook status %d", resp.StatusCode)
	}
}
