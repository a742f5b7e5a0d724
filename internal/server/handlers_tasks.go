package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/teemow/szymon/internal/instrumentation"
	"github.com/teemow/szymon/internal/tasks"
)

type taskHandlers struct {
	sc *ServerContext
}

func (h *taskHandlers) routes(r chi.Router) {
	r.Get("/lists", h.listTaskLists)
	r.Get("/", h.listTasks)
	r.Post("/", h.createTask)
	r.Get("/{task_id}", h.getTask)
	r.Put("/{task_id}", h.updateTask)
	r.Delete("/{task_id}", h.deleteTask)
	r.Post("/{task_id}/complete", h.completeTask)
	r.Post("/{task_id}/uncomplete", h.uncompleteTask)
}

func taskListID(r *http.Request) string {
	if id := r.URL.Query().Get("task_list_id"); id != "" {
		return id
	}
	return tasks.DefaultTaskList
}

func queryBool(r *http.Request, key string, fallback bool) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func (h *taskHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, instrumentation.ServiceTasks, err)
}

func (h *taskHandlers) target(op, listID, taskID string) target {
	return target{service: instrumentation.ServiceTasks, operation: op, container: listID, resource: taskID}
}

func (h *taskHandlers) listTaskLists(w http.ResponseWriter, r *http.Request) {
	client, err := h.sc.TasksClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	lists, err := instrumented(r.Context(), h.sc, h.target(instrumentation.OperationListLists, "", ""), client.ListTaskLists)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *taskHandlers) listTasks(w http.ResponseWriter, r *http.Request) {
	showCompleted, err := queryBool(r, "show_completed", true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	showHidden, err := queryBool(r, "show_hidden", false)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	client, err := h.sc.TasksClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	listID := taskListID(r)
	opts := tasks.ListOptions{ShowCompleted: showCompleted, ShowHidden: showHidden}
	items, err := instrumented(r.Context(), h.sc, h.target(instrumentation.OperationList, listID, ""), func(ctx context.Context) ([]tasks.Task, error) {
		return client.ListTasks(ctx, listID, opts)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *taskHandlers) getTask(w http.ResponseWriter, r *http.Request) {
	client, err := h.sc.TasksClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	listID, taskID := taskListID(r), chi.URLParam(r, "task_id")
	task, err := instrumented(r.Context(), h.sc, h.target(instrumentation.OperationGet, listID, taskID), func(ctx context.Context) (*tasks.Task, error) {
		return client.GetTask(ctx, listID, taskID)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *taskHandlers) createTask(w http.ResponseWriter, r *http.Request) {
	var input tasks.TaskInput
	if err := decodeBody(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}

	client, err := h.sc.TasksClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	listID := taskListID(r)
	task, err := instrumented(r.Context(), h.sc, h.target(instrumentation.OperationCreate, listID, ""), func(ctx context.Context) (*tasks.Task, error) {
		return client.CreateTask(ctx, listID, input)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *taskHandlers) updateTask(w http.ResponseWriter, r *http.Request) {
	var update tasks.TaskUpdate
	if err := decodeBody(r, &update); err != nil {
		h.fail(w, r, err)
		return
	}

	client, err := h.sc.TasksClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	listID, taskID := taskListID(r), chi.URLParam(r, "task_id")
	task, err := instrumented(r.Context(), h.sc, h.target(instrumentation.OperationUpdate, listID, taskID), func(ctx context.Context) (*tasks.Task, error) {
		return client.UpdateTask(ctx, listID, taskID, update)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *taskHandlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	client, err := h.sc.TasksClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	listID, taskID := taskListID(r), chi.URLParam(r, "task_id")
	err = instrumentedErr(r.Context(), h.sc, h.target(instrumentation.OperationDelete, listID, taskID), func(ctx context.Context) error {
		return client.DeleteTask(ctx, listID, taskID)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *taskHandlers) completeTask(w http.ResponseWriter, r *http.Request) {
	h.setCompletion(w, r, instrumentation.OperationComplete)
}

func (h *taskHandlers) uncompleteTask(w http.ResponseWriter, r *http.Request) {
	h.setCompletion(w, r, instrumentation.OperationUncomplete)
}

func (h *taskHandlers) setCompletion(w http.ResponseWriter, r *http.Request, op string) {
	client, err := h.sc.TasksClient()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	listID, taskID := taskListID(r), chi.URLParam(r, "task_id")
	task, err := instrumented(r.Context(), h.sc, h.target(op, listID, taskID), func(ctx context.Context) (*tasks.Task, error) {
		if op == instrumentation.OperationUncomplete {
			return client.UncompleteTask(ctx, listID, taskID)
		}
		return client.CompleteTask(ctx, listID, taskID)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
