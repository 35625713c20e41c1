// Package sqli detects error-based SQL injection signals: responses that
// leak a database error after a quote-breaking payload was submitted.
package sqli

import (
	"regexp"
	"strings"

	"github.com/vortexscan/vortex/pkg/finding"
	"github.com/vortexscan/vortex/pkg/regexcache"
)

// DBMS identifies the database engine a fingerprint belongs to.
type DBMS string

const (
	DBMSMySQL      DBMS = "mysql"
	DBMSMariaDB    DBMS = "mariadb"
	DBMSPostgreSQL DBMS = "postgresql"
	DBMSMSSQL      DBMS = "mssql"
	DBMSOracle     DBMS = "oracle"
	DBMSSQLite     DBMS = "sqlite"
	DBMSGeneric    DBMS = "generic"
)

// builtinPayloads are tried in order before any external list.
var builtinPayloads = []string{
	`'`,
	`"`,
	`';--`,
	`') OR '1'='1`,
	`' OR '1'='1`,
}

// Payloads returns a copy of the built-in payload list.
func Payloads() []string {
	return append([]string(nil), builtinPayloads...)
}

type fingerprint struct {
	dbms DBMS
	re   *regexp.Regexp
}

// fingerprints are checked in order; the first match wins.
var fingerprints = []fingerprint{
	{DBMSMariaDB, regexcache.MustFold(`MariaDB server version for the right syntax`)},
	{DBMSMySQL, regexcache.MustFold(`you have an error in your sql syntax`)},
	{DBMSMySQL, regexcache.MustFold(`warning:\s*mysql_fetch_array\(\)`)},
	{DBMSMySQL, regexcache.MustFold(`warning.*\bmysqli?_`)},
	{DBMSMySQL, regexcache.MustFold(`valid MySQL result`)},
	{DBMSMySQL, regexcache.MustFold(`MySqlClient\.`)},
	{DBMSMySQL, regexcache.MustFold(`com\.mysql\.jdbc`)},
	{DBMSPostgreSQL, regexcache.MustFold(`postgre-?sql.*error`)},
	{DBMSPostgreSQL, regexcache.MustFold(`warning.*\Wpg_`)},
	{DBMSPostgreSQL, regexcache.MustFold(`ERROR:\s*syntax error at or near`)},
	{DBMSPostgreSQL, regexcache.MustFold(`unterminated quoted string at or near`)},
	{DBMSPostgreSQL, regexcache.MustFold(`org\.postgresql\.util\.PSQLException`)},
	{DBMSPostgreSQL, regexcache.MustFold(`Npgsql\.`)},
	{DBMSMSSQL, regexcache.MustFold(`unclosed quotation mark after the character string`)},
	{DBMSMSSQL, regexcache.MustFold(`microsoft ole db provider for (odbc drivers|sql server)`)},
	{DBMSMSSQL, regexcache.MustFold(`\[Microsoft\]\[ODBC SQL Server Driver\]`)},
	{DBMSMSSQL, regexcache.MustFold(`Incorrect syntax near`)},
	{DBMSMSSQL, regexcache.MustFold(`Warning.*\bmssql_`)},
	{DBMSOracle, regexcache.MustFold(`\bORA-[0-9]{5}`)},
	{DBMSOracle, regexcache.MustFold(`oracle error`)},
	{DBMSOracle, regexcache.MustFold(`quoted string not properly terminated`)},
	{DBMSOracle, regexcache.MustFold(`Warning.*\boci_`)},
	{DBMSSQLite, regexcache.MustFold(`sqlite/jdbc_?driver`)},
	{DBMSSQLite, regexcache.MustFold(`sqlite\.exception`)},
	{DBMSSQLite, regexcache.MustFold(`SQLite3::(query|SQLException)`)},
	{DBMSSQLite, regexcache.MustFold(`\[SQLITE_ERROR\]`)},
	{DBMSSQLite, regexcache.MustFold(`unrecognized token: "'`)},
	{DBMSGeneric, regexcache.MustFold(`java\.sql\.SQLException`)},
	{DBMSGeneric, regexcache.MustFold(`ODBC (Driver|Error)`)},
	{DBMSGeneric, regexcache.MustFold(`JDBC(Exception|Driver)`)},
}

// keywords gate the regex pass; a body without any of them cannot match.
var keywords = []string{
	"sql", "syntax", "mysql", "mariadb", "postgre", "pg_", "ora-", "oracle",
	"odbc", "jdbc", "sqlite", "quoted", "quotation", "oci_", "unrecognized token",
}

// Match is a recognized database error.
type Match struct {
	DBMS    DBMS
	Excerpt string
}

// Detect reports whether body contains a known database error.
func Detect(body []byte) (Match, bool) {
	s := string(body)
	lower := strings.ToLower(s)
	hit := false
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			hit = true
			break
		}
	}
	if !hit {
		return Match{}, false
	}

	for _, fp := range fingerprints {
		if loc := fp.re.FindStringIndex(s); loc != nil {
			return Match{DBMS: fp.dbms, Excerpt: excerpt(s, loc[0], loc[1])}, true
		}
	}
	return Match{}, false
}

// excerpt returns the match plus a little surrounding context, capped at
// 200 bytes and trimmed of surrounding whitespace.
func excerpt(s string, start, end int) string {
	const pad = 40
	lo := max(0, start-pad)
	hi := min(len(s), end+pad)
	if hi-lo > 200 {
		hi = lo + 200
	}
	return strings.Join(strings.Fields(s[lo:hi]), " ")
}

// Detector is the SQL injection detector used by the injection stage.
type Detector struct{}

// Class returns finding.SQLInjection.
func (Detector) Class() finding.Class { return finding.SQLInjection }

// Payloads returns the built-in payloads.
func (Detector) Payloads() []string { return Payloads() }

// Detect reports a database error in body. The payload is not needed:
// error-based detection only looks at the response.
func (Detector) Detect(body []byte, _ string) (string, bool) {
	m, ok := Detect(body)
	if !ok {
		return "", false
	}
	return string(m.DBMS) + ": " + m.Excerpt, true
}
