package exports

import (
	"encoding/csv"
	"io"
	"strings"

	"useradmin/models"
)

// writeUsersCSV streams the filtered result set as CSV, one row per user
// with active memberships flattened into semicolon lists.
func writeUsersCSV(w io.Writer, users []models.User) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"user_uid", "username", "first_name", "last_name", "mail", "phone", "organisations", "roles"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, u := range users {
		orgs := make([]string, 0)
		roles := make([]string, 0)
		for _, m := range u.ActiveMemberships() {
			orgs = append(orgs, m.OrgName)
			for _, role := range m.Roles {
				label := role.RoleName
				if label == "" {
					label = role.RoleID
				}
				roles = append(roles, m.OrgName+":"+label)
			}
		}
		record := []string{
			u.UserUID,
			u.Username,
			u.FirstName,
			u.LastName,
			u.Mail,
			u.Phone,
			strings.Join(orgs, "; "),
			strings.Join(roles, "; "),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}
