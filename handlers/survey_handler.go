package handlers

import (
	"net/http"

	"story4u-backend/models"
	"story4u-backend/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type choiceRequest struct {
	Key   string `json:"key" binding:"required,max=64"`
	Label string `json:"label" binding:"required,max=255"`
}

type surveyRequest struct {
	ID      uint            `json:"id"`
	Title   *string         `json:"title" binding:"required"`
	Choices []choiceRequest `json:"choices" binding:"omitempty,min=2,dive"`
}

type voteChoice struct {
	Key string `json:"key"`
}

// voteRequest 接受 {"key": "..."}，也兼容 {"choices": [{"key": "..."}]}
type voteRequest struct {
	Key     string       `json:"key" binding:"required_without=Choices"`
	Choices []voteChoice `json:"choices"`
}

func (r voteRequest) choiceKey() string {
	if r.Key != "" {
		return r.Key
	}
	if len(r.Choices) > 0 {
		return r.Choices[0].Key
	}
	return ""
}

// SaveSurvey 新建问卷，或在带id时修改标题
func (a *API) SaveSurvey(c *gin.Context) {
	var req surveyRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, a.log, err)
		return
	}
	caller, err := a.currentUser(c)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	in := service.SurveyInput{ID: req.ID, Title: req.Title}
	for _, ch := range req.Choices {
		in.Choices = append(in.Choices, service.ChoiceInput{Key: ch.Key, Label: ch.Label})
	}
	survey, isNew, err := a.surveys.Save(c.Request.Context(), caller, in)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	msg := "Survey updated"
	if isNew {
		msg = "Survey created"
	}
	respondOK(c, created(isNew), msg, survey)
}

// ListSurveys 只返回问卷标题和总票数
func (a *API) ListSurveys(c *gin.Context) {
	surveys, err := a.surveys.List(c.Request.Context())
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Surveys", surveys)
}

// GetSurvey 返回问卷及各选项计数
func (a *API) GetSurvey(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	survey, err := a.surveys.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Survey", survey)
}

// Vote 为选项投一票，并把最新计数推送给订阅者
func (a *API) Vote(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	var req voteRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, a.log, err)
		return
	}
	survey, err := a.surveys.Vote(c.Request.Context(), id, req.choiceKey())
	if err != nil {
		respondError(c, a.log, err)
		return
	}

	if a.metrics != nil {
		a.metrics.SurveyVote.Inc()
	}
	if a.hub != nil {
		a.hub.BroadcastSurvey(survey.ID, results(survey))
	}
	respondOK(c, http.StatusOK, "Vote recorded", survey)
}

// SurveyResults 推送给WebSocket订阅者的计数
type SurveyResults struct {
	TotalVotes int64            `json:"total_votes"`
	Choices    map[string]int64 `json:"choices"`
}

func results(s *models.Survey) SurveyResults {
	r := SurveyResults{TotalVotes: s.TotalVotes, Choices: make(map[string]int64, len(s.Choices))}
	for _, ch := range s.Choices {
		r.Choices[ch.Key] = ch.Votes
	}
	return r
}

// SurveyLive 订阅问卷的实时计数
func (a *API) SurveyLive(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	if _, err := a.surveys.Get(c.Request.Context(), id); err != nil {
		respondError(c, a.log, err)
		return
	}
	if a.ws == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	if err := a.ws.Serve(c.Writer, c.Request, id); err != nil {
		// Upgrade失败时已写入响应
		a.log.Debug("WebSocket升级失败", zap.Uint("survey_id", id), zap.Error(err))
	}
}

// DeleteSurvey 删除问卷
func (a *API) DeleteSurvey(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	if err := a.surveys.Delete(c.Request.Context(), id); err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Survey deleted", nil)
}
