package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WeaponVisuals defines visual properties for weapon rendering (client-side)
type WeaponVisuals struct {
	MuzzleFlashColor    string `json:"muzzleFlashColor" yaml:"muzzleFlashColor"`
	MuzzleFlashSize     int    `json:"muzzleFlashSize" yaml:"muzzleFlashSize"`
	MuzzleFlashDuration int    `json:"muzzleFlashDuration" yaml:"muzzleFlashDuration"`
}

// RecoilConfig defines recoil pattern configuration from JSON or YAML
type RecoilConfig struct {
	VerticalPerShot   float64 `json:"verticalPerShot" yaml:"verticalPerShot"`
	HorizontalPerShot float64 `json:"horizontalPerShot" yaml:"horizontalPerShot"`
	RecoveryTime      float64 `json:"recoveryTime" yaml:"recoveryTime"`
	MaxAccumulation   float64 `json:"maxAccumulation" yaml:"maxAccumulation"`
}

// WeaponConfig defines weapon configuration, loadable from either JSON or YAML
type WeaponConfig struct {
	Name              string        `json:"name" yaml:"name"`
	Damage            int           `json:"damage" yaml:"damage"`
	FireRate          float64       `json:"fireRate" yaml:"fireRate"`
	MagazineSize      int           `json:"magazineSize" yaml:"magazineSize"`
	ReloadTimeMs      int           `json:"reloadTimeMs" yaml:"reloadTimeMs"`
	ProjectileSpeed   float64       `json:"projectileSpeed" yaml:"projectileSpeed"`
	Range             float64       `json:"range" yaml:"range"`
	ArcDegrees        float64       `json:"arcDegrees" yaml:"arcDegrees"`
	KnockbackDistance float64       `json:"knockbackDistance" yaml:"knockbackDistance"`
	Recoil            *RecoilConfig `json:"recoil" yaml:"recoil,omitempty"`
	SpreadDegrees     float64       `json:"spreadDegrees" yaml:"spreadDegrees"`
	Visuals           WeaponVisuals `json:"visuals" yaml:"visuals"`
}

// WeaponConfigFile defines the structure of weapon-configs.json/weapon-configs.yaml
type WeaponConfigFile struct {
	Version string                  `json:"version" yaml:"version"`
	Weapons map[string]WeaponConfig `json:"weapons" yaml:"weapons"`
}

// ToWeapon converts WeaponConfig to Weapon struct
func (wc *WeaponConfig) ToWeapon() *Weapon {
	weapon := &Weapon{
		Name:              wc.Name,
		Damage:            wc.Damage,
		FireRate:          wc.FireRate,
		MagazineSize:      wc.MagazineSize,
		ReloadTime:        time.Duration(wc.ReloadTimeMs) * time.Millisecond,
		ProjectileSpeed:   wc.ProjectileSpeed,
		Range:             wc.Range,
		ArcDegrees:        wc.ArcDegrees,
		KnockbackDistance: wc.KnockbackDistance,
		SpreadDegrees:     wc.SpreadDegrees,
	}

	// Convert recoil config if present
	if wc.Recoil != nil {
		weapon.Recoil = &RecoilPattern{
			VerticalPerShot:   wc.Recoil.VerticalPerShot,
			HorizontalPerShot: wc.Recoil.HorizontalPerShot,
			RecoveryTime:      wc.Recoil.RecoveryTime,
			MaxAccumulation:   wc.Recoil.MaxAccumulation,
		}
	}

	return weapon
}

// LoadWeaponConfigs loads weapon configurations from a JSON or YAML file,
// dispatching on the file extension. Both formats populate the same
// WeaponConfig struct.
func LoadWeaponConfigs(configPath string) (map[string]*WeaponConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read weapon config file: %w", err)
	}

	var configFile WeaponConfigFile
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("failed to parse weapon config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("failed to parse weapon config JSON: %w", err)
		}
	}

	// Convert map to pointer map
	configs := make(map[string]*WeaponConfig)
	for name, config := range configFile.Weapons {
		configCopy := config // Create copy to get stable pointer
		configs[name] = &configCopy
	}

	return configs, nil
}

// GetDefaultConfigPath returns the default path to the weapon config file.
// A weapon-configs.yaml at the project root takes precedence over
// weapon-configs.json, falling back to JSON when no YAML overlay exists.
// Assumes the config is at the project root (two levels up from internal/game).
func GetDefaultConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "../../weapon-configs.json"
	}

	// Navigate to project root: internal/game -> internal -> project root
	projectRoot := filepath.Join(cwd, "..", "..")
	yamlPath := filepath.Join(projectRoot, "weapon-configs.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	return filepath.Join(projectRoot, "weapon-configs.json")
}

// ValidateWeaponConfig validates a weapon configuration
func ValidateWeaponConfig(config *WeaponConfig) error {
	if config.Name == "" {
		return fmt.Errorf("weapon name cannot be empty")
	}
	if config.Damage <= 0 {
		return fmt.Errorf("weapon damage must be positive, got %d", config.Damage)
	}
	if config.FireRate <= 0 {
		return fmt.Errorf("weapon fire rate must be positive, got %f", config.FireRate)
	}
	if config.Range <= 0 {
		return fmt.Errorf("weapon range must be positive, got %f", config.Range)
	}

	// Validate ranged weapon constraints
	if config.MagazineSize > 0 && config.ProjectileSpeed <= 0 {
		return fmt.Errorf("ranged weapon must have positive projectile speed")
	}

	// Validate recoil if present
	if config.Recoil != nil {
		if config.Recoil.RecoveryTime <= 0 {
			return fmt.Errorf("recoil recovery time must be positive")
		}
		if config.Recoil.MaxAccumulation <= 0 {
			return fmt.Errorf("recoil max accumulation must be positive")
		}
	}

	return nil
}

// LoadWeaponConfigsOrDefault loads weapon configs from file, or returns hardcoded defaults on error
func LoadWeaponConfigsOrDefault(configPath string) map[string]*WeaponConfig {
	configs, err := LoadWeaponConfigs(configPath)
	if err != nil {
		// Fallback to hardcoded configs
		return getHardcodedWeaponConfigs()
	}
	return configs
}

// getHardcodedWeaponConfigs returns hardcoded weapon configs as fallback
func getHardcodedWeaponConfigs() map[string]*WeaponConfig {
	return map[string]*WeaponConfig{
		"Pistol": {
			Name:              "Pistol",
			Damage:            PistolDamage,
			FireRate:          PistolFireRate,
			MagazineSize:      PistolMagazineSize,
			ReloadTimeMs:      int(PistolReloadTime.Milliseconds()),
			ProjectileSpeed:   PistolProjectileSpeed,
			Range:             ProjectileMaxRange,
			ArcDegrees:        0,
			KnockbackDistance: 0,
			Recoil:            nil,
			SpreadDegrees:     0,
		},
		"Bat": {
			Name:              "Bat",
			Damage:            25,
			FireRate:          2.0,
			MagazineSize:      0,
			ReloadTimeMs:      0,
			ProjectileSpeed:   0,
			Range:             64,
			ArcDegrees:        90,
			KnockbackDistance: 40,
			Recoil:            nil,
			SpreadDegrees:     0,
		},
		"Katana": {
			Name:              "Katana",
			Damage:            45,
			FireRate:          1.25,
			MagazineSize:      0,
			ReloadTimeMs:      0,
			ProjectileSpeed:   0,
			Range:             80,
			ArcDegrees:        90,
			KnockbackDistance: 0,
			Recoil:            nil,
			SpreadDegrees:     0,
		},
		"Uzi": {
			Name:            "Uzi",
			Damage:          8,
			FireRate:        10.0,
			MagazineSize:    30,
			ReloadTimeMs:    1500,
			ProjectileSpeed: 800.0,
			Range:           600,
			ArcDegrees:      0,
			Recoil: &RecoilConfig{
				VerticalPerShot:   2.0,
				HorizontalPerShot: 0.0,
				RecoveryTime:      0.5,
				MaxAccumulation:   20.0,
			},
			SpreadDegrees: 5.0,
		},
		"AK47": {
			Name:            "AK47",
			Damage:          20,
			FireRate:        6.0,
			MagazineSize:    30,
			ReloadTimeMs:    2000,
			ProjectileSpeed: 800.0,
			Range:           800,
			ArcDegrees:      0,
			Recoil: &RecoilConfig{
				VerticalPerShot:   1.5,
				HorizontalPerShot: 3.0,
				RecoveryTime:      0.6,
				MaxAccumulation:   15.0,
			},
			SpreadDegrees: 3.0,
		},
		"Shotgun": {
			Name:              "Shotgun",
			Damage:            60,
			FireRate:          1.0,
			MagazineSize:      6,
			ReloadTimeMs:      2500,
			ProjectileSpeed:   800.0,
			Range:             300,
			ArcDegrees:        15.0,
			KnockbackDistance: 0,
			Recoil:            nil,
			SpreadDegrees:     0,
		},
	}
}
