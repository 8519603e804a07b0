package api

import (
	"context"
	"encoding/json"

	"github.com/theirongolddev/ngodash/internal/model"
)

// ListProjects returns all projects visible to the session.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	raw, err := c.getRaw(ctx, "/projects")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Project](raw)
}

// GetProject returns one project.
func (c *Client) GetProject(ctx context.Context, id string) (*model.Project, error) {
	raw, err := c.getRaw(ctx, "/projects/"+segment(id))
	if err != nil {
		return nil, err
	}
	return decodeOne[model.Project](raw)
}

// ListProjectsByUser returns the projects owned by a user.
func (c *Client) ListProjectsByUser(ctx context.Context, userID string) ([]model.Project, error) {
	raw, err := c.getRaw(ctx, "/projects/user/"+segment(userID))
	if err != nil {
		return nil, err
	}
	return decodeList[model.Project](raw)
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, p model.Project) (*model.Project, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/projects", p, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.Project](raw)
}

// UpdateProject replaces a project's editable fields.
func (c *Client) UpdateProject(ctx context.Context, id string, p model.Project) (*model.Project, error) {
	var raw json.RawMessage
	if err := c.put(ctx, "/projects/"+segment(id), p, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.Project](raw)
}

// ListActivities returns a project's activities.
func (c *Client) ListActivities(ctx context.Context, projectID string) ([]model.Activity, error) {
	raw, err := c.getRaw(ctx, "/projects/activities/"+segment(projectID))
	if err != nil {
		return nil, err
	}
	return decodeList[model.Activity](raw)
}

// CreateActivity adds an activity to a project.
func (c *Client) CreateActivity(ctx context.Context, projectID string, in model.ActivityInput) (*model.Activity, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/projects/"+segment(projectID)+"/activities", in, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.Activity](raw)
}

// UpdateActivity updates one of a project's activities.
func (c *Client) UpdateActivity(ctx context.Context, projectID, activityID string, in model.ActivityInput) (*model.Activity, error) {
	var raw json.RawMessage
	path := "/projects/" + segment(projectID) + "/activities/" + segment(activityID)
	if err := c.put(ctx, path, in, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.Activity](raw)
}

// ListBudgetLines returns a project's budget lines.
func (c *Client) ListBudgetLines(ctx context.Context, projectID string) ([]model.BudgetLine, error) {
	raw, err := c.getRaw(ctx, "/projects/budgets/"+segment(projectID))
	if err != nil {
		return nil, err
	}
	return decodeList[model.BudgetLine](raw)
}

// CreateBudgetLine adds a budget line to a project. Callers should run the
// allocation guard first; the server still has the final say.
func (c *Client) CreateBudgetLine(ctx context.Context, projectID string, in model.BudgetLineInput) (*model.BudgetLine, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/projects/"+segment(projectID)+"/budgets", in, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.BudgetLine](raw)
}
