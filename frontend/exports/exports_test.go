package exports

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"useradmin/models"
)

func sampleUsers() []models.User {
	return []models.User{
		{
			UserUID: "u-1", Username: "jdoe", FirstName: "Jane", LastName: "Doe",
			Mail: "jane@example.com", Phone: "555-0101",
			Organisations: []models.Membership{
				{OrgUID: "org-1", OrgName: "Org One", Roles: []models.RoleAssignment{{RoleID: "role-1", RoleName: "Admin"}}},
				{OrgUID: "org-old", OrgName: "Closed", Deleted: true, Roles: []models.RoleAssignment{{RoleID: "role-2"}}},
			},
		},
		{
			UserUID: "u-2", Username: "asmith", FirstName: "Alex", LastName: "Smith",
			Mail: "alex@example.com",
		},
	}
}

func TestWriteUsersCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeUsersCSV(&buf, sampleUsers()); err != nil {
		t.Fatalf("writeUsersCSV returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "user_uid,username") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Org One:Admin") {
		t.Fatalf("flattened roles missing: %q", lines[1])
	}
	if strings.Contains(lines[1], "Closed") {
		t.Fatalf("soft-deleted membership leaked into export: %q", lines[1])
	}
}

func TestWriteUsersCSV_EmptySet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeUsersCSV(&buf, nil); err != nil {
		t.Fatalf("writeUsersCSV returned error: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 1 {
		t.Fatalf("expected header only, got %d lines", len(lines))
	}
}

func TestRenderUserDirectoryPDF_GeneratesPDF(t *testing.T) {
	t.Parallel()

	pdf, err := renderUserDirectoryPDF(sampleUsers(), "https://console.example.com/", time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("renderUserDirectoryPDF returned error: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("expected non-empty pdf bytes")
	}
}

func TestRenderUserDirectoryPDF_RejectsEmptySet(t *testing.T) {
	t.Parallel()

	if _, err := renderUserDirectoryPDF(nil, "https://console.example.com", time.Now()); err == nil {
		t.Fatalf("expected error for empty user set")
	}
}
