package sqlassets

import _ "embed"

//go:embed schema/tenants.sql
var TenantsSQL string

//go:embed schema/users.sql
var UsersSQL string

//go:embed schema/sessions.sql
var SessionsSQL string

//go:embed schema/tickets.sql
var TicketsSQL string
