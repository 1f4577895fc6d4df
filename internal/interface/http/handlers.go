package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/language-study/study-hub/internal/application/command"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.ReadyCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.deps.ReadyCheck(ctx); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	session, err := s.viewSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.deps.GetSnapshot.Handle(r.Context(), session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// statsResponse carries the derived counts without the item collections.
type statsResponse struct {
	VocabularyStats progress.StatusCounts   `json:"vocabularyStats"`
	SkillStats      progress.StatusCounts   `json:"skillStats"`
	PortfolioStats  progress.PortfolioStats `json:"portfolioStats"`
	EarnedBadges    int                     `json:"earnedBadges"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	session, err := s.viewSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.deps.GetSnapshot.Handle(r.Context(), session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		VocabularyStats: view.VocabularyStats,
		SkillStats:      view.SkillStats,
		PortfolioStats:  view.PortfolioStats,
		EarnedBadges:    len(view.EarnedBadges),
	})
}

func (s *Server) handleExportSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exporter == nil {
		writeJSONError(w, http.StatusNotFound, "not_found", "export is not enabled")
		return
	}
	session, err := s.viewSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.deps.GetSnapshot.Handle(r.Context(), session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("study-export-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := s.deps.Exporter.Write(w, view.Snapshot); err != nil {
		// headers are already sent; all we can do is log
		s.log.Error("export write failed", logger.Err(err))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VOCABULARY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type addVocabularyRequest struct {
	Words       string `json:"words"`
	Translation string `json:"translation"`
	Category    string `json:"category"`
}

func (s *Server) handleAddVocabulary(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req addVocabularyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.deps.AddVocabulary.Handle(r.Context(), command.AddVocabularyCommand{
		Session:     session,
		RawWords:    req.Words,
		Translation: req.Translation,
		Category:    req.Category,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Items)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateVocabularyStatus(w http.ResponseWriter, r *http.Request) {
	s.updateItemStatus(w, r, command.KindVocabulary)
}

func (s *Server) handleUpdateSkillStatus(w http.ResponseWriter, r *http.Request) {
	s.updateItemStatus(w, r, command.KindSkill)
}

func (s *Server) updateItemStatus(w http.ResponseWriter, r *http.Request, kind command.ItemKind) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.deps.UpdateStatus.Handle(r.Context(), command.UpdateStatusCommand{
		Session:   session,
		Kind:      kind,
		ItemID:    r.PathValue("id"),
		RawStatus: req.Status,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDeleteVocabulary(w http.ResponseWriter, r *http.Request) {
	s.deleteItem(w, r, command.DeleteVocabulary)
}

func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	s.deleteItem(w, r, command.DeleteSkill)
}

func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	s.deleteItem(w, r, command.DeletePortfolio)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request, kind command.DeletableKind) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.deps.DeleteItem.Handle(r.Context(), command.DeleteItemCommand{
		Session: session,
		Kind:    kind,
		ItemID:  r.PathValue("id"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// SKILL & SUBTASK HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type addSkillsRequest struct {
	Names string `json:"names"`
}

func (s *Server) handleAddSkills(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req addSkillsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.deps.AddSkills.Handle(r.Context(), command.AddSkillsCommand{
		Session:  session,
		RawNames: req.Names,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Skills)
}

type addSubtaskRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAddSubtask(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req addSubtaskRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	subtask, err := s.deps.Subtasks.HandleAdd(r.Context(), command.AddSubtaskCommand{
		Session: session,
		SkillID: r.PathValue("id"),
		Text:    req.Text,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, subtask)
}

func (s *Server) handleUpdateSubtaskStatus(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.deps.Subtasks.HandleUpdateStatus(r.Context(), command.UpdateSubtaskStatusCommand{
		Session:   session,
		SkillID:   r.PathValue("id"),
		SubtaskID: r.PathValue("subtaskId"),
		RawStatus: req.Status,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDeleteSubtask(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.deps.Subtasks.HandleDelete(r.Context(), command.DeleteSubtaskCommand{
		Session:   session,
		SkillID:   r.PathValue("id"),
		SubtaskID: r.PathValue("subtaskId"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type addCategoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req addCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	categories, err := s.deps.Categories.HandleAdd(r.Context(), command.AddCategoryCommand{
		Session: session,
		Name:    req.Name,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categories)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.deps.Categories.HandleDelete(r.Context(), command.DeleteCategoryCommand{
		Session: session,
		Name:    r.PathValue("name"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PORTFOLIO HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type addPortfolioRequest struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

func (s *Server) handleAddPortfolio(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req addPortfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.deps.Portfolio.HandleAdd(r.Context(), command.AddPortfolioCommand{
		Session: session,
		Title:   req.Title,
		Link:    req.Link,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, portfolioEntryResponse{
		PortfolioEntry: *entry,
		EmbedHTML:      entry.EmbedHTML(),
	})
}

// portfolioEntryResponse flattens the entry with its rendered embed markup.
type portfolioEntryResponse struct {
	progress.PortfolioEntry
	EmbedHTML string `json:"embedHtml,omitempty"`
}

func (s *Server) handleToggleTop(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.deps.Portfolio.HandleToggleTop(r.Context(), command.ToggleTopCommand{
		Session: session,
		EntryID: r.PathValue("id"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type settingsFlagRequest struct {
	Value bool `json:"value"`
}

func (s *Server) handleUpdateSettingsFlag(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req settingsFlagRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings, err := s.deps.Settings.HandleFlag(r.Context(), command.UpdateSettingsFlagCommand{
		Session: session,
		Flag:    command.SettingsFlag(r.PathValue("flag")),
		Value:   req.Value,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleFirstLoginDone(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Settings.HandleFirstLoginDone(r.Context(), session); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// MENTOR SHARING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetMentorCode(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code, err := s.deps.MentorSharing.HandleGet(r.Context(), session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

func (s *Server) handleGetOrCreateMentorCode(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code, err := s.deps.MentorSharing.HandleGetOrCreate(r.Context(), session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

type setMentorCodeEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleSetMentorCodeEnabled(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req setMentorCodeEnabledRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	code, err := s.deps.MentorSharing.HandleSetEnabled(r.Context(), session, req.Enabled)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

func (s *Server) handleRegenerateMentorCode(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code, err := s.deps.MentorSharing.HandleRegenerate(r.Context(), session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

// ══════════════════════════════════════════════════════════════════════════════
// TIPS & USAGE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type requestTipRequest struct {
	Kind   string `json:"kind"`
	Word   string `json:"word"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (s *Server) handleRequestTip(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req requestTipRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.deps.RequestTip.Handle(r.Context(), command.RequestTipCommand{
		Session: session,
		Request: command.TipRequest{
			Kind:   command.ItemKind(req.Kind),
			Word:   req.Word,
			Name:   req.Name,
			Status: parseTipStatus(req.Status),
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// parseTipStatus is lenient: an unknown status reads as not started so
// the fallback generator still has something to work with.
func parseTipStatus(raw string) progress.Status {
	status, err := progress.ParseStatus(raw)
	if err != nil {
		return progress.StatusNotStarted
	}
	return status
}

func (s *Server) handleGetUsage(w http.ResponseWriter, r *http.Request) {
	session, err := s.ownerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	decision, err := s.deps.GetUsage.Handle(r.Context(), session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}
