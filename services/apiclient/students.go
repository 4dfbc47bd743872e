package apiclient

import (
	"context"
	"fmt"
	"strconv"
)

// StudentFilter narrows student searches; zero values are omitted.
type StudentFilter struct {
	Query    string
	Standard string
	Section  string
	Active   *bool
}

func (f StudentFilter) params(q PageQuery) map[string]string {
	params := q.params(nil)
	if f.Query != "" {
		params["query"] = f.Query
	}
	if f.Standard != "" {
		params["standard"] = f.Standard
	}
	if f.Section != "" {
		params["section"] = f.Section
	}
	if f.Active != nil {
		params["isActive"] = strconv.FormatBool(*f.Active)
	}
	return params
}

type StudentsAPI struct {
	c *Client
}

func (c *Client) Students() *StudentsAPI {
	return &StudentsAPI{c: c}
}

func (a *StudentsAPI) List(ctx context.Context, q PageQuery) (StudentPage, error) {
	var page StudentPage
	err := a.c.get(ctx, "/students", q.params(nil), &page)
	return page, err
}

func (a *StudentsAPI) Get(ctx context.Context, id int64) (Student, error) {
	var st Student
	err := a.c.get(ctx, studentPath(id), nil, &st)
	return st, err
}

func (a *StudentsAPI) Create(ctx context.Context, st Student) (Student, error) {
	var created Student
	err := a.c.post(ctx, "/students", st, &created)
	return created, err
}

func (a *StudentsAPI) Update(ctx context.Context, id int64, st Student) (Student, error) {
	var updated Student
	err := a.c.put(ctx, studentPath(id), st, &updated)
	return updated, err
}

func (a *StudentsAPI) Delete(ctx context.Context, id int64) error {
	return a.c.delete(ctx, studentPath(id))
}

func (a *StudentsAPI) Activate(ctx context.Context, id int64) error {
	return a.c.put(ctx, studentPath(id)+"/activate", nil, nil)
}

func (a *StudentsAPI) Deactivate(ctx context.Context, id int64) error {
	return a.c.put(ctx, studentPath(id)+"/deactivate", nil, nil)
}

func (a *StudentsAPI) Search(ctx context.Context, f StudentFilter, q PageQuery) (StudentPage, error) {
	var page StudentPage
	err := a.c.get(ctx, "/students/search", f.params(q), &page)
	return page, err
}

func (a *StudentsAPI) BySchool(ctx context.Context, schoolID int64, q PageQuery) (StudentPage, error) {
	var page StudentPage
	err := a.c.get(ctx, fmt.Sprintf("/students/school/%d", schoolID), q.params(nil), &page)
	return page, err
}

func studentPath(id int64) string {
	return fmt.Sprintf("/students/%d", id)
}
