package intercept

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fooService interface {
	Bar(n int) int
}

type otherService interface {
	Bar(n int) int
}

func fooType() reflect.Type {
	return reflect.TypeOf((*fooService)(nil)).Elem()
}

// fooName is the default published name for fooService registrations.
func fooName() string {
	return DefaultUniqueName(fooType())
}

func params(types ...reflect.Type) []reflect.Type {
	return types
}

func TestCallInterceptor_Matches(t *testing.T) {
	interceptor := NewCallInterceptor(
		fooType(), "", MemberMethod, "Bar",
		[]reflect.Type{reflect.TypeOf(0)}, func(*CallData) {})

	tests := []struct {
		name          string
		interfaceType reflect.Type
		uniqueName    string
		kind          MemberKind
		memberName    string
		paramTypes    []reflect.Type
		want          bool
	}{
		{
			name:          "exact coordinate matches",
			interfaceType: fooType(),
			uniqueName:    fooName(),
			memberName:    "Bar",
			kind:          MemberMethod,
			paramTypes:    params(reflect.TypeOf(0)),
			want:          true,
		},
		{
			name:          "extra argument does not match",
			interfaceType: fooType(),
			uniqueName:    fooName(),
			memberName:    "Bar",
			kind:          MemberMethod,
			paramTypes:    params(reflect.TypeOf(0), reflect.TypeOf("")),
			want:          false,
		},
		{
			name:          "different unique name does not match",
			interfaceType: fooType(),
			uniqueName:    "secondary",
			memberName:    "Bar",
			kind:          MemberMethod,
			paramTypes:    params(reflect.TypeOf(0)),
			want:          false,
		},
		{
			name:          "different interface does not match",
			interfaceType: reflect.TypeOf((*otherService)(nil)).Elem(),
			uniqueName:    fooName(),
			memberName:    "Bar",
			kind:          MemberMethod,
			paramTypes:    params(reflect.TypeOf(0)),
			want:          false,
		},
		{
			name:          "different member kind does not match",
			interfaceType: fooType(),
			uniqueName:    fooName(),
			memberName:    "Bar",
			kind:          MemberEvent,
			paramTypes:    params(reflect.TypeOf(0)),
			want:          false,
		},
		{
			name:          "different parameter type does not match",
			interfaceType: fooType(),
			uniqueName:    fooName(),
			memberName:    "Bar",
			kind:          MemberMethod,
			paramTypes:    params(reflect.TypeOf(int64(0))),
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interceptor.Matches(
				tt.interfaceType, tt.uniqueName, tt.kind, tt.memberName, tt.paramTypes)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallInterceptor_EmptyNameTargetsDefaultName(t *testing.T) {
	// The constructor resolves an empty name to the interface's default.
	built := NewCallInterceptor(fooType(), "", MemberMethod, "Bar",
		params(reflect.TypeOf(0)), func(*CallData) {})
	assert.Equal(t, fooName(), built.UniqueName)

	// Struct-literal construction skips the constructor; Matches still
	// resolves the empty name against the default coordinate.
	literal := &CallInterceptor{
		InterfaceType:  fooType(),
		MemberKind:     MemberMethod,
		MemberName:     "Bar",
		ParamTypes:     params(reflect.TypeOf(0)),
		OnInterception: func(*CallData) {},
		Enabled:        true,
	}
	assert.True(t, literal.Matches(
		fooType(), fooName(), MemberMethod, "Bar", params(reflect.TypeOf(0))))
}

func TestCollection_FirstMatchWins(t *testing.T) {
	collection := NewCallInterceptorCollection()

	first := NewCallInterceptor(fooType(), "", MemberMethod, "Bar",
		params(reflect.TypeOf(0)), func(*CallData) {})
	second := NewCallInterceptor(fooType(), "", MemberMethod, "Bar",
		params(reflect.TypeOf(0)), func(*CallData) {})
	collection.Add(first)
	collection.Add(second)

	found := collection.FindMatchingInterceptor(
		fooType(), fooName(), MemberMethod, "Bar", params(reflect.TypeOf(0)))
	assert.Same(t, first, found, "Registration order is match priority")

	// Disabling the first promotes the second.
	first.Enabled = false
	found = collection.FindMatchingInterceptor(
		fooType(), fooName(), MemberMethod, "Bar", params(reflect.TypeOf(0)))
	assert.Same(t, second, found)
}

func TestCollection_GlobalEnableSwitch(t *testing.T) {
	collection := NewCallInterceptorCollection()
	collection.Add(NewCallInterceptor(fooType(), "", MemberMethod, "Bar",
		params(reflect.TypeOf(0)), func(*CallData) {}))

	collection.SetEnabled(false)
	assert.Nil(t, collection.FindMatchingInterceptor(
		fooType(), fooName(), MemberMethod, "Bar", params(reflect.TypeOf(0))))

	collection.SetEnabled(true)
	assert.NotNil(t, collection.FindMatchingInterceptor(
		fooType(), fooName(), MemberMethod, "Bar", params(reflect.TypeOf(0))))
}

func TestCollection_AddRemoveClear(t *testing.T) {
	collection := NewCallInterceptorCollection()

	interceptor := NewCallInterceptor(fooType(), "", MemberMethod, "Bar",
		nil, func(*CallData) {})
	collection.Add(interceptor)
	collection.Add(nil) // ignored
	assert.Equal(t, 1, collection.Len())

	collection.Remove(interceptor)
	assert.Equal(t, 0, collection.Len())

	collection.Add(interceptor)
	collection.Clear()
	assert.Equal(t, 0, collection.Len())
}

func TestCallData_InterceptedSuppressesRealCall(t *testing.T) {
	realCalls := 0
	data := NewCallData([]any{5}, func(args []any) (any, error) {
		realCalls++
		return 10, nil
	})

	data.ReturnValue = 99
	data.Intercepted = true

	assert.Equal(t, 0, realCalls)
	assert.Equal(t, 99, data.ReturnValue)
}

func TestCallData_MakeRemoteCallEscapeHatch(t *testing.T) {
	data := NewCallData([]any{5}, func(args []any) (any, error) {
		require.Equal(t, []any{5}, args)
		return 10, nil
	})

	result, err := data.MakeRemoteCall()
	require.NoError(t, err)
	assert.Equal(t, 10, result)
	assert.True(t, data.Intercepted, "The escape hatch marks the call as handled")
	assert.Equal(t, 10, data.ReturnValue)
}

func TestConcurrentMatchAndMutate(t *testing.T) {
	collection := NewCallInterceptorCollection()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			interceptor := NewCallInterceptor(fooType(), "", MemberMethod, "Bar",
				params(reflect.TypeOf(0)), func(*CallData) {})
			collection.Add(interceptor)
			collection.Remove(interceptor)
		}
	}()

	for i := 0; i < 200; i++ {
		collection.FindMatchingInterceptor(
			fooType(), fooName(), MemberMethod, "Bar", params(reflect.TypeOf(0)))
	}
	<-done
}
