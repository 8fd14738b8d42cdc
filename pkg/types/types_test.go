package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestValidateQueueName(t *testing.T) {
	tests := []struct {
		name    QueueName
		wantErr string
	}{
		{name: "Office"},
		{name: "Büro-2.OG"},
		{name: "", wantErr: "must not be empty"},
		{name: "Front Desk", wantErr: "whitespace"},
		{name: "Front\tDesk", wantErr: "whitespace"},
		{name: "floor/2", wantErr: "slash"},
		{name: "room#4", wantErr: "hash"},
		{name: "a,b", wantErr: "comma"},
		{name: `say"cheese`, wantErr: "quote"},
		{name: "it's", wantErr: "quote"},
		{name: "line\nbreak", wantErr: "control character"},
		{name: "carriage\rreturn", wantErr: "control character"},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			err := ValidateQueueName(tt.name)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "want ConfigurationError, got %v", err)
			assert.Equal(t, "name", cfgErr.Field)
			assert.Contains(t, cfgErr.Reason, tt.wantErr)
		})
	}
}

func TestValidateQueueNameTooLong(t *testing.T) {
	long := make([]byte, MaxQueueNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ValidateQueueName(QueueName(long)))
	assert.NoError(t, ValidateQueueName(QueueName(long[:MaxQueueNameLength])))
}

func TestQueueNameEqual(t *testing.T) {
	assert.True(t, QueueName("Office").Equal("office"))
	assert.False(t, QueueName("Office").Equal("Offices"))
}

func TestClassMembershipEqual(t *testing.T) {
	assert.True(t, ClassMembership{"Office", "Warehouse"}.Equal(ClassMembership{"office", "WAREHOUSE"}))
	assert.False(t, ClassMembership{"Office", "Warehouse"}.Equal(ClassMembership{"Warehouse", "Office"}))
	assert.False(t, ClassMembership{"Office"}.Equal(ClassMembership{"Office", "Warehouse"}))
}

func TestAccessControlNormalize(t *testing.T) {
	acl := AccessControl{Policy: PolicyDeny, Users: []string{`"sshd"`, "root", "sshd", " ", "@lp"}}
	assert.Equal(t, []string{"@lp", "root", "sshd"}, acl.Normalize().Users)

	empty := AccessControl{Policy: PolicyAllow}
	assert.Equal(t, []string{PrincipalAll}, empty.Normalize().Users)
}

func TestAccessControlEqual(t *testing.T) {
	a := NewAccessControl(PolicyAllow, "bob", "alice")
	b := AccessControl{Policy: PolicyAllow, Users: []string{"alice", "bob", "alice"}}
	assert.True(t, a.Equal(b))

	c := NewAccessControl(PolicyDeny, "alice", "bob")
	assert.False(t, a.Equal(c))

	assert.Equal(t, "allow:alice,bob", a.String())
}

func TestDeclaredQueueInstallMethod(t *testing.T) {
	tests := []struct {
		name   string
		queue  DeclaredQueue
		method InstallMethod
		arg    string
	}{
		{"none", DeclaredQueue{}, InstallNone, ""},
		{"model", DeclaredQueue{Model: "drv:///sample.drv/generic.ppd"}, InstallModel, "drv:///sample.drv/generic.ppd"},
		{"ppd", DeclaredQueue{PPD: "/etc/cups/ppd/x.ppd"}, InstallPPD, "/etc/cups/ppd/x.ppd"},
		{"interface", DeclaredQueue{Interface: "/usr/share/cups/model/x.sh"}, InstallInterface, "/usr/share/cups/model/x.sh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, arg := tt.queue.InstallMethod()
			assert.Equal(t, tt.method, method)
			assert.Equal(t, tt.arg, arg)
		})
	}
}

func TestDeclaredQueueValidate(t *testing.T) {
	tests := []struct {
		name      string
		queue     DeclaredQueue
		wantField string
	}{
		{
			name:  "minimal printer",
			queue: DeclaredQueue{Name: "Office", Kind: KindPrinter},
		},
		{
			name: "full printer",
			queue: DeclaredQueue{
				Name:        "Office",
				Kind:        KindPrinter,
				DeviceURI:   ptr("ipp://10.0.0.5/ipp/print"),
				Model:       "drv:///sample.drv/generic.ppd",
				Access:      &AccessControl{Policy: PolicyAllow, Users: []string{"alice", "@staff"}},
				Accepting:   ptr(true),
				Enabled:     ptr(true),
				Description: ptr("Front desk"),
				Options:     map[string]string{"PageSize": "A4", "printer-error-policy": "abort-job"},
			},
		},
		{
			name:  "absent ignores attributes",
			queue: DeclaredQueue{Name: "Office", Kind: KindAbsent, Model: "x", PPD: "relative"},
		},
		{
			name:      "unknown kind",
			queue:     DeclaredQueue{Name: "Office", Kind: "scanner"},
			wantField: "ensure",
		},
		{
			name:      "model and ppd",
			queue:     DeclaredQueue{Name: "Office", Kind: KindPrinter, Model: "m", PPD: "/tmp/x.ppd"},
			wantField: "model",
		},
		{
			name:      "relative ppd",
			queue:     DeclaredQueue{Name: "Office", Kind: KindPrinter, PPD: "x.ppd"},
			wantField: "ppd",
		},
		{
			name:      "relative interface",
			queue:     DeclaredQueue{Name: "Office", Kind: KindPrinter, Interface: "x.sh"},
			wantField: "interface",
		},
		{
			name:      "uri without scheme",
			queue:     DeclaredQueue{Name: "Office", Kind: KindPrinter, DeviceURI: ptr("/dev/usb/lp0")},
			wantField: "uri",
		},
		{
			name:      "printer with members",
			queue:     DeclaredQueue{Name: "Office", Kind: KindPrinter, Members: ClassMembership{"A"}},
			wantField: "members",
		},
		{
			name:  "class",
			queue: DeclaredQueue{Name: "GroundFloor", Kind: KindClass, Members: ClassMembership{"Office", "Warehouse"}},
		},
		{
			name:      "class without members",
			queue:     DeclaredQueue{Name: "GroundFloor", Kind: KindClass},
			wantField: "members",
		},
		{
			name:      "class with model",
			queue:     DeclaredQueue{Name: "GroundFloor", Kind: KindClass, Members: ClassMembership{"Office"}, Model: "m"},
			wantField: "model",
		},
		{
			name:      "class with uri",
			queue:     DeclaredQueue{Name: "GroundFloor", Kind: KindClass, Members: ClassMembership{"Office"}, DeviceURI: ptr("lpd://x/q")},
			wantField: "uri",
		},
		{
			name:      "class with make and model",
			queue:     DeclaredQueue{Name: "GroundFloor", Kind: KindClass, Members: ClassMembership{"Office"}, MakeAndModel: "HP"},
			wantField: "make_and_model",
		},
		{
			name:      "class duplicate member",
			queue:     DeclaredQueue{Name: "GroundFloor", Kind: KindClass, Members: ClassMembership{"Office", "office"}},
			wantField: "members",
		},
		{
			name:      "class contains itself",
			queue:     DeclaredQueue{Name: "GroundFloor", Kind: KindClass, Members: ClassMembership{"groundfloor"}},
			wantField: "members",
		},
		{
			name:      "class invalid member name",
			queue:     DeclaredQueue{Name: "GroundFloor", Kind: KindClass, Members: ClassMembership{"Front Desk"}},
			wantField: "members",
		},
		{
			name:      "first class option",
			queue:     DeclaredQueue{Name: "Office", Kind: KindPrinter, Options: map[string]string{"printer-is-shared": "true"}},
			wantField: "options",
		},
		{
			name:      "option key with equals",
			queue:     DeclaredQueue{Name: "Office", Kind: KindPrinter, Options: map[string]string{"a=b": "c"}},
			wantField: "options",
		},
		{
			name:      "bad policy",
			queue:     DeclaredQueue{Name: "Office", Kind: KindPrinter, Access: &AccessControl{Policy: "maybe", Users: []string{"a"}}},
			wantField: "access",
		},
		{
			name:      "empty users",
			queue:     DeclaredQueue{Name: "Office", Kind: KindPrinter, Access: &AccessControl{Policy: PolicyDeny}},
			wantField: "access",
		},
		{
			name:      "user with comma",
			queue:     DeclaredQueue{Name: "Office", Kind: KindPrinter, Access: &AccessControl{Policy: PolicyDeny, Users: []string{"a,b"}}},
			wantField: "access",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.queue.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "want ConfigurationError, got %v", err)
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.Equal(t, tt.queue.Name, cfgErr.Queue)
		})
	}
}

func TestFirstClassOptionMessage(t *testing.T) {
	err := ValidateOptionKeys("Office", map[string]string{"printer-is-shared": "false"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"shared" property`)
}

func TestValidateSupportedOptions(t *testing.T) {
	supported := QueueAttributeSet{"PageSize": "A4", "job-k-limit": "0"}

	assert.NoError(t, ValidateSupportedOptions("Office", map[string]string{"PageSize": "Letter"}, supported))
	assert.NoError(t, ValidateSupportedOptions("Office", nil, supported))

	err := ValidateSupportedOptions("Office", map[string]string{"Duplex": "None", "PageSize": "A4"}, supported)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Reason, "Duplex")
	assert.Contains(t, cfgErr.Reason, "supported: PageSize, job-k-limit")
}
