package ctl_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/httpdconf/ctl"
)

const definesReport = `ServerRoot: "/etc/apache2"
Main DocumentRoot: "/var/www"
Main ErrorLog: "/var/log/apache2/error.log"
Mutex ssl-stapling: using_defaults
Mutex ssl-cache: using_defaults
Mutex default: dir="/var/lock/apache2" mechanism=fcntl
Mutex watchdog-callback: using_defaults
PidFile: "/var/run/apache2/apache2.pid"
Define: TEST
Define: DUMP_RUN_CFG
Define: U_MICH
Define: TLS=443
Define: example_path=Documents/path
User: name="www-data" id=33 not_used
Group: name="www-data" id=33 not_used
`

const modulesReport = `Loaded Modules:
 core_module (static)
 so_module (static)
 watchdog_module (static)
 http_module (static)
 log_config_module (static)
 logio_module (static)
 version_module (static)
 unixd_module (static)
 access_compat_module (shared)
 alias_module (shared)
 auth_basic_module (shared)
 authn_core_module (shared)
 authn_file_module (shared)
 authz_core_module (shared)
 authz_host_module (shared)
 authz_user_module (shared)
 autoindex_module (shared)
 deflate_module (shared)
 dir_module (shared)
 env_module (shared)
 filter_module (shared)
 mime_module (shared)
 mpm_event_module (shared)
 negotiation_module (shared)
 reqtimeout_module (shared)
 setenvif_module (shared)
 socache_shmcb_module (shared)
 ssl_module (shared)
 status_module (shared)
`

const includesReport = `Included configuration files:
  (*) /etc/apache2/apache2.conf
    (146) /etc/apache2/conf-enabled/charset.conf
    (146) /etc/apache2/conf-enabled/localized-error-pages.conf
    (146) /etc/apache2/conf-enabled/security.conf
    (147) /etc/apache2/ports.conf
    (148) /etc/apache2/sites-enabled/000-default.conf
`

func TestParseDefines(t *testing.T) {
	t.Parallel()

	t.Run("variable table", func(t *testing.T) {
		t.Parallel()

		vars, err := ctl.ParseDefines(definesReport)
		require.NoError(t, err)

		want := map[string]string{
			"TEST":         "",
			"U_MICH":       "",
			"TLS":          "443",
			"example_path": "Documents/path",
		}
		assert.Empty(t, cmp.Diff(want, vars))
	})

	t.Run("dump flag is dropped even when it is the only define", func(t *testing.T) {
		t.Parallel()

		vars, err := ctl.ParseDefines("Define: DUMP_RUN_CFG\n")
		require.NoError(t, err)
		assert.Empty(t, vars)
	})

	t.Run("no defines at all", func(t *testing.T) {
		t.Parallel()

		vars, err := ctl.ParseDefines("ServerRoot: \"/etc/apache2\"\n")
		require.NoError(t, err)
		assert.Empty(t, vars)
	})

	t.Run("double equals fails the report", func(t *testing.T) {
		t.Parallel()

		_, err := ctl.ParseDefines("Define: DUMP_RUN_CFG\nDefine: TLS=443=24\n")
		require.ErrorIs(t, err, ctl.ErrBadReport)
	})
}

func TestParseModules(t *testing.T) {
	t.Parallel()

	names := ctl.ParseModules(modulesReport)
	assert.Len(t, names, 29)
	assert.Contains(t, names, "core")
	assert.Contains(t, names, "ssl")
	assert.Contains(t, names, "mpm_event")
	assert.NotContains(t, names, "Loaded Modules:")

	assert.Empty(t, ctl.ParseModules("Loaded Modules:\n"))
}

func TestParseIncludes(t *testing.T) {
	t.Parallel()

	files := ctl.ParseIncludes(includesReport)
	require.Len(t, files, 6)
	assert.Equal(t, "/etc/apache2/apache2.conf", files[0], "source order is preserved")
	assert.Equal(t, "/etc/apache2/sites-enabled/000-default.conf", files[5])

	assert.Empty(t, ctl.ParseIncludes("Included configuration files:\n"))
}
