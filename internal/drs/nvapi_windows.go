//go:build windows

package drs

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"codeberg.org/mutker/frltoggle/internal/logger"
	"golang.org/x/sys/windows"
)

// nvapi_QueryInterface ids from nvapi_interface.h
const (
	idInitialize        = 0x0150E828
	idGetErrorMessage   = 0x6C2D048C
	idDRSCreateSession  = 0x0694D52E
	idDRSDestroySession = 0xDAD9CFF8
	idDRSLoadSettings   = 0x375DBD6B
	idDRSSaveSettings   = 0xFCBC7E14
	idDRSGetBaseProfile = 0xDA8466A0
	idDRSGetSetting     = 0x73BF8338
	idDRSSetSetting     = 0x577DD202
)

type nvStatus int32

const (
	nvOK              nvStatus = 0
	nvSettingNotFound nvStatus = -160
)

const (
	unicodeStringMax = 2048
	binaryDataMax    = 4096
	shortStringMax   = 64

	dwordType uint32 = 0
)

// settingValue is the NVDRS_SETTING value union; DWORDs use the first four bytes.
type settingValue [4 + binaryDataMax]byte

// nvdrsSetting mirrors NVDRS_SETTING_V1.
type nvdrsSetting struct {
	version             uint32
	settingName         [unicodeStringMax]uint16
	settingID           uint32
	settingType         uint32
	settingLocation     uint32
	isCurrentPredefined uint32
	isPredefinedValid   uint32
	predefinedValue     settingValue
	currentValue        settingValue
}

var nvdrsSettingVersion = uint32(unsafe.Sizeof(nvdrsSetting{})) | 1<<16

type nvapi struct {
	dll   *windows.LazyDLL
	procs map[uint32]uintptr
}

var (
	loadOnce sync.Once
	loaded   *nvapi
	loadErr  error
)

func dllName() string {
	if unsafe.Sizeof(uintptr(0)) == 8 {
		return "nvapi64.dll"
	}
	return "nvapi.dll"
}

func loadNVAPI() (*nvapi, error) {
	loadOnce.Do(func() {
		dll := windows.NewLazySystemDLL(dllName())
		query := dll.NewProc("nvapi_QueryInterface")
		if err := query.Find(); err != nil {
			loadErr = APIError(OpInitialize, err)
			return
		}

		api := &nvapi{dll: dll, procs: make(map[uint32]uintptr)}
		ids := []uint32{
			idInitialize, idGetErrorMessage,
			idDRSCreateSession, idDRSDestroySession,
			idDRSLoadSettings, idDRSSaveSettings,
			idDRSGetBaseProfile, idDRSGetSetting, idDRSSetSetting,
		}
		for _, id := range ids {
			ptr, _, _ := query.Call(uintptr(id))
			if ptr == 0 {
				loadErr = APIError(OpInitialize, fmt.Errorf("nvapi_QueryInterface(0x%08X) returned nil", id))
				return
			}
			api.procs[id] = ptr
		}

		if st := toStatus(syscall.SyscallN(api.procs[idInitialize])); st != nvOK {
			loadErr = APIError(OpInitialize, api.statusError(st))
			return
		}

		logger.Debug().Str("dll", dllName()).Msg("NVAPI initialized")
		loaded = api
	})

	return loaded, loadErr
}

// Pointer arguments are converted inline in each syscall.SyscallN call so
// the referenced memory stays valid for the duration of the call.
func toStatus(r uintptr, _ uintptr, _ syscall.Errno) nvStatus {
	return nvStatus(int32(r))
}

func (a *nvapi) statusError(st nvStatus) error {
	var desc [shortStringMax]byte
	if toStatus(syscall.SyscallN(a.procs[idGetErrorMessage], uintptr(st), uintptr(unsafe.Pointer(&desc[0])))) != nvOK {
		return fmt.Errorf("NVAPI status %d", st)
	}

	return fmt.Errorf("%s (NVAPI status %d)", windows.ByteSliceToString(desc[:]), st)
}

type nvapiSession struct {
	api    *nvapi
	handle uintptr
}

// Open creates a driver settings session through NVAPI.
func Open() (Session, error) {
	api, err := loadNVAPI()
	if err != nil {
		return nil, err
	}

	var handle uintptr
	if st := toStatus(syscall.SyscallN(api.procs[idDRSCreateSession], uintptr(unsafe.Pointer(&handle)))); st != nvOK {
		return nil, APIError(OpCreateSession, api.statusError(st))
	}

	return &nvapiSession{api: api, handle: handle}, nil
}

func (s *nvapiSession) LoadSettings() error {
	if st := toStatus(syscall.SyscallN(s.api.procs[idDRSLoadSettings], s.handle)); st != nvOK {
		return APIError(OpLoadSettings, s.api.statusError(st))
	}

	return nil
}

func (s *nvapiSession) BaseProfile() (Profile, error) {
	var profile uintptr
	if st := toStatus(syscall.SyscallN(s.api.procs[idDRSGetBaseProfile], s.handle, uintptr(unsafe.Pointer(&profile)))); st != nvOK {
		return 0, APIError(OpBaseProfile, s.api.statusError(st))
	}

	return Profile(profile), nil
}

func (s *nvapiSession) GetSetting(profile Profile, id uint32) (Setting, error) {
	setting := &nvdrsSetting{version: nvdrsSettingVersion}

	st := toStatus(syscall.SyscallN(s.api.procs[idDRSGetSetting], s.handle, uintptr(profile), uintptr(id), uintptr(unsafe.Pointer(setting))))
	runtime.KeepAlive(setting)

	switch st {
	case nvOK:
	case nvSettingNotFound:
		return Setting{}, SettingNotFound(id)
	default:
		return Setting{}, APIError(OpGetSetting, s.api.statusError(st))
	}

	return Setting{
		ID:    setting.settingID,
		Value: binary.LittleEndian.Uint32(setting.currentValue[:4]),
	}, nil
}

func (s *nvapiSession) SetSetting(profile Profile, value Setting) error {
	setting := &nvdrsSetting{
		version:     nvdrsSettingVersion,
		settingID:   value.ID,
		settingType: dwordType,
	}
	binary.LittleEndian.PutUint32(setting.currentValue[:4], value.Value)

	st := toStatus(syscall.SyscallN(s.api.procs[idDRSSetSetting], s.handle, uintptr(profile), uintptr(unsafe.Pointer(setting))))
	runtime.KeepAlive(setting)

	if st != nvOK {
		return APIError(OpSetSetting, s.api.statusError(st))
	}

	return nil
}

func (s *nvapiSession) SaveSettings() error {
	if st := toStatus(syscall.SyscallN(s.api.procs[idDRSSaveSettings], s.handle)); st != nvOK {
		return APIError(OpSaveSettings, s.api.statusError(st))
	}

	return nil
}

func (s *nvapiSession) Close() error {
	if s.handle == 0 {
		return nil
	}

	st := toStatus(syscall.SyscallN(s.api.procs[idDRSDestroySession], s.handle))
	s.handle = 0
	if st != nvOK {
		return APIError(OpCloseSession, s.api.statusError(st))
	}

	return nil
}
