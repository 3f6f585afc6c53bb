package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"taskdesk/backend"
	"taskdesk/internal/utils"
	"taskdesk/internal/views"
)

// JSON output structures

type listTasksResponse struct {
	Tasks        []backend.Task    `json:"tasks"`
	Filter       views.FilterState `json:"filter"`
	CurrentPage  int               `json:"currentPage"`
	TotalPages   int               `json:"totalPages"`
	TotalMatches int               `json:"totalMatches"`
	Count        int               `json:"count"`
	Result       string            `json:"result"`
}

type actionResponse struct {
	Action  string        `json:"action"`
	Task    *backend.Task `json:"task,omitempty"`
	Warning string        `json:"warning,omitempty"`
	Result  string        `json:"result"`
}

type sessionResponse struct {
	Username string `json:"username,omitempty"`
	Initials string `json:"initials,omitempty"`
	LoggedIn bool   `json:"loggedIn"`
	Warning  string `json:"warning,omitempty"`
	Result   string `json:"result"`
}

type usersResponse struct {
	Users  []backend.User `json:"users"`
	Count  int            `json:"count"`
	Result string         `json:"result"`
}

type viewsResponse struct {
	Views  []views.ViewInfo `json:"views"`
	Result string           `json:"result"`
}

type errorResponse struct {
	Error      string            `json:"error"`
	Suggestion string            `json:"suggestion,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Code       int               `json:"code"`
	Result     string            `json:"result"`
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, stdout io.Writer) {
	response := errorResponse{
		Error:  err.Error(),
		Code:   1,
		Result: ResultError,
	}

	var sugg *utils.ErrorWithSuggestion
	if errors.As(err, &sugg) {
		response.Error = sugg.Err.Error()
		response.Suggestion = sugg.Suggestion
	}
	var verrs utils.ValidationErrors
	if errors.As(err, &verrs) {
		response.Fields = verrs
	}

	_ = writeJSON(stdout, response)
}
