package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

type gqlError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Code returns the error code of the first GraphQL error, or "".
func (r *gqlResponse) Code() string {
	if len(r.Errors) == 0 {
		return ""
	}
	code, _ := r.Errors[0].Extensions["code"].(string)
	return code
}

// client posts GraphQL operations to one endpoint.
type client struct {
	endpoint string
	timeout  time.Duration
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{endpoint: baseURL + "/graphql", timeout: timeout}
}

// do executes query and decodes data into dest when there are no errors.
func (c *client) do(token, query string, vars map[string]any, dest any) (*gqlResponse, error) {
	agent := fiber.Post(c.endpoint).
		Timeout(c.timeout).
		JSON(map[string]any{"query": query, "variables": vars})
	if token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if status != fiber.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", status, body)
	}

	var resp gqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Errors) == 0 && dest != nil {
		if err := json.Unmarshal(resp.Data, dest); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	return &resp, nil
}

// must is do for setup calls, where any GraphQL error is fatal.
func (c *client) must(token, query string, vars map[string]any, dest any) error {
	resp, err := c.do(token, query, vars, dest)
	if err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("%s: %s", resp.Code(), resp.Errors[0].Message)
	}
	return nil
}
