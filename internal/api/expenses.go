package api

import (
	"context"
	"encoding/json"

	"github.com/theirongolddev/ngodash/internal/model"
)

// ListExpenses returns all expenses.
func (c *Client) ListExpenses(ctx context.Context) ([]model.Expense, error) {
	raw, err := c.getRaw(ctx, "/expenses")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Expense](raw)
}

// GetExpense returns one expense.
func (c *Client) GetExpense(ctx context.Context, id string) (*model.Expense, error) {
	raw, err := c.getRaw(ctx, "/expenses/"+segment(id))
	if err != nil {
		return nil, err
	}
	return decodeOne[model.Expense](raw)
}

// CurrentExpenses returns expenses for the current reporting period.
func (c *Client) CurrentExpenses(ctx context.Context) ([]model.Expense, error) {
	raw, err := c.getRaw(ctx, "/expenses/current")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Expense](raw)
}

// CreateExpense records an expense.
func (c *Client) CreateExpense(ctx context.Context, in model.ExpenseInput) (*model.Expense, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/expenses", in, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.Expense](raw)
}

// UpdateExpense updates an expense.
func (c *Client) UpdateExpense(ctx context.Context, id string, in model.ExpenseInput) (*model.Expense, error) {
	var raw json.RawMessage
	if err := c.put(ctx, "/expenses/"+segment(id), in, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.Expense](raw)
}
