package apiclient

import (
	"context"
	"fmt"
)

type TeachersAPI struct {
	c *Client
}

func (c *Client) Teachers() *TeachersAPI {
	return &TeachersAPI{c: c}
}

func (a *TeachersAPI) List(ctx context.Context, q PageQuery) (TeacherPage, error) {
	var page TeacherPage
	err := a.c.get(ctx, "/teachers", q.params(nil), &page)
	return page, err
}

func (a *TeachersAPI) Get(ctx context.Context, id int64) (Teacher, error) {
	var t Teacher
	err := a.c.get(ctx, teacherPath(id), nil, &t)
	return t, err
}

func (a *TeachersAPI) Create(ctx context.Context, t Teacher) (Teacher, error) {
	var created Teacher
	err := a.c.post(ctx, "/teachers", t, &created)
	return created, err
}

func (a *TeachersAPI) Update(ctx context.Context, id int64, t Teacher) (Teacher, error) {
	var updated Teacher
	err := a.c.put(ctx, teacherPath(id), t, &updated)
	return updated, err
}

func (a *TeachersAPI) Delete(ctx context.Context, id int64) error {
	return a.c.delete(ctx, teacherPath(id))
}

func (a *TeachersAPI) Search(ctx context.Context, query string, q PageQuery) (TeacherPage, error) {
	var page TeacherPage
	params := q.params(nil)
	if query != "" {
		params["query"] = query
	}
	err := a.c.get(ctx, "/teachers/search", params, &page)
	return page, err
}

func (a *TeachersAPI) BySchool(ctx context.Context, schoolID int64, q PageQuery) (TeacherPage, error) {
	var page TeacherPage
	err := a.c.get(ctx, fmt.Sprintf("/teachers/school/%d", schoolID), q.params(nil), &page)
	return page, err
}

func (a *TeachersAPI) AssignSubjects(ctx context.Context, id int64, subjects []string) error {
	body := map[string][]string{"subjects": subjects}
	return a.c.put(ctx, teacherPath(id)+"/subjects", body, nil)
}

func (a *TeachersAPI) AssignClasses(ctx context.Context, id int64, classes []string) error {
	body := map[string][]string{"classes": classes}
	return a.c.put(ctx, teacherPath(id)+"/classes", body, nil)
}

func teacherPath(id int64) string {
	return fmt.Sprintf("/teachers/%d", id)
}
