package sqli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vortexscan/vortex/pkg/finding"
)

func TestDetect_Fingerprints(t *testing.T) {
	tests := []struct {
		name string
		body string
		dbms DBMS
	}{
		{"mysql syntax", "You have an error in your SQL syntax; check the manual near ''' at line 1", DBMSMySQL},
		{"mysql upper", "YOU HAVE AN ERROR IN YOUR SQL SYNTAX", DBMSMySQL},
		{"mariadb", "check the manual that corresponds to your MariaDB server version for the right syntax", DBMSMariaDB},
		{"mysql_fetch_array", "Warning: mysql_fetch_array() expects parameter 1", DBMSMySQL},
		{"postgres", "PostgreSQL query failed: ERROR: syntax error at or near \"'\"", DBMSPostgreSQL},
		{"postgre-sql", "postgre-sql error 42601", DBMSPostgreSQL},
		{"mssql", "Unclosed quotation mark after the character string ''.", DBMSMSSQL},
		{"odbc provider", "Microsoft OLE DB Provider for ODBC Drivers error '80040e14'", DBMSMSSQL},
		{"oracle code", "ORA-01756: quoted string not properly terminated", DBMSOracle},
		{"oracle text", "Oracle error occurred", DBMSOracle},
		{"sqlite jdbc", "sqlite/jdbcdriver: near \"'\": syntax error", DBMSSQLite},
		{"sqlite jdbc underscore", "sqlite/jdbc_driver: near \"'\": syntax error", DBMSSQLite},
		{"sqlite token", `unrecognized token: "'"`, DBMSSQLite},
		{"jdbc generic", "java.sql.SQLException: bad SQL grammar", DBMSGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Detect([]byte("<html><body>" + tt.body + "</body></html>"))
			assert.True(t, ok)
			assert.Equal(t, tt.dbms, m.DBMS)
			assert.NotEmpty(t, m.Excerpt)
		})
	}
}

// Lowercased error strings as they appear in scraped page text.
func TestDetect_LowercaseErrorStrings(t *testing.T) {
	for _, body := range []string{
		"you have an error in your sql syntax",
		"warning: mysql_fetch_array()",
		"unclosed quotation mark after the character string",
		"quoted string not properly terminated",
		"oracle error",
		"postgre-sql error",
		"sqlite/jdbc_driver",
		"microsoft ole db provider for odbc drivers",
	} {
		_, ok := Detect([]byte("<p>" + body + "</p>"))
		assert.True(t, ok, body)
	}
}

func TestDetect_CleanPages(t *testing.T) {
	for _, body := range []string{
		"",
		"<html><body>Welcome back</body></html>",
		"Our SQL course teaches syntax basics",
		"Login failed: invalid username or password",
	} {
		_, ok := Detect([]byte(body))
		assert.False(t, ok, body)
	}
}

func TestExcerpt_Bounded(t *testing.T) {
	body := strings.Repeat("x ", 500) + "You have an error in your SQL syntax" + strings.Repeat(" y", 500)
	m, ok := Detect([]byte(body))
	assert.True(t, ok)
	assert.LessOrEqual(t, len(m.Excerpt), 200)
	assert.Contains(t, strings.ToLower(m.Excerpt), "error in your sql")
}

func TestPayloads(t *testing.T) {
	p := Payloads()
	assert.Equal(t, []string{`'`, `"`, `';--`, `') OR '1'='1`, `' OR '1'='1`}, p)
	p[0] = "mutated"
	assert.Equal(t, `'`, Payloads()[0], "Payloads must return a copy")
}

func TestDetector(t *testing.T) {
	var d Detector
	assert.Equal(t, finding.SQLInjection, d.Class())
	ev, ok := d.Detect([]byte("ORA-00933: SQL command not properly ended"), "'")
	assert.True(t, ok)
	assert.Contains(t, ev, "oracle: ")
	_, ok = d.Detect([]byte("fine"), "'")
	assert.False(t, ok)
}
