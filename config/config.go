// Package config holds the immutable per-robot drive parameters. A config is
// loaded or constructed once at startup, validated, and passed by reference
// to every component that needs it.
package config

import (
	"encoding/json"
	"math"
	"os"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// derating adjusts theoretical maximums down since a physical drivetrain
// cannot achieve them.
const derating = 0.8

// Motor describes the characteristics of the drive and steering motors.
type Motor struct {
	FreeSpeedRPM  float64 `json:"free_speed_rpm"`
	StallTorqueNm float64 `json:"stall_torque_nm"`
}

// Module describes the mechanical properties of one swerve module. All four
// modules on a robot are identical.
type Module struct {
	DriveGearRatio    float64 `json:"drive_gear_ratio"`
	SteeringGearRatio float64 `json:"steering_gear_ratio"`
	WheelDiameterM    float64 `json:"wheel_diameter_m"`
}

// Balance holds the tunable thresholds of the balancing controller. Angles
// are in degrees to match how they are measured and tuned at the field.
type Balance struct {
	ClimbSpeed          float64 `json:"climb_speed"`            // m/s
	MountedThresholdDeg float64 `json:"mounted_threshold_deg"`  // tilt at which the robot counts as on the ramp
	BalanceThresholdDeg float64 `json:"balance_threshold_deg"`  // |tilt| below this counts as level
	MinTiltRateDeg      float64 `json:"min_tilt_rate_deg"`      // deg/s, smallest significant tilt rate
	PauseTicks          int     `json:"pause_ticks"`            // forced zero-speed ticks after stopping
}

// Holonomic holds the feedback gains for the holonomic drive controller.
type Holonomic struct {
	XP     float64 `json:"x_p"`
	YP     float64 `json:"y_p"`
	ThetaP float64 `json:"theta_p"`
}

// Drive is the complete set of per-robot drive base parameters.
type Drive struct {
	RobotMassKg       float64 `json:"robot_mass_kg"`
	WheelBaseM        float64 `json:"wheel_base_m"`  // distance between front and back wheels
	TrackWidthM       float64 `json:"track_width_m"` // distance between left and right wheels
	MaxBatteryVoltage float64 `json:"max_battery_voltage"`

	Motor  Motor  `json:"motor"`
	Module Module `json:"module"`

	// DriveKs and SteeringKs are the static friction feedforward constants
	// in volts, measured per robot.
	DriveKs    float64 `json:"drive_ks"`
	SteeringKs float64 `json:"steering_ks"`

	// SteeringKp is the proportional gain of the per-module steering loop in
	// volts per radian of angle error.
	SteeringKp float64 `json:"steering_kp"`

	// GravityKg is the gravity compensation gain in volts per unit sin(tilt).
	GravityKg float64 `json:"gravity_kg"`

	Balance   Balance   `json:"balance"`
	Holonomic Holonomic `json:"holonomic"`
}

// Validate checks that the config describes a drivable robot. Any failure
// here is fatal at startup.
func (c *Drive) Validate(path string) error {
	if c.RobotMassKg <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "robot_mass_kg")
	}
	if c.WheelBaseM <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "wheel_base_m")
	}
	if c.TrackWidthM <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "track_width_m")
	}
	if c.MaxBatteryVoltage <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "max_battery_voltage")
	}
	if c.Motor.FreeSpeedRPM <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "motor.free_speed_rpm")
	}
	if c.Motor.StallTorqueNm <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "motor.stall_torque_nm")
	}
	if c.Module.DriveGearRatio <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "module.drive_gear_ratio")
	}
	if c.Module.SteeringGearRatio <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "module.steering_gear_ratio")
	}
	if c.Module.WheelDiameterM <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "module.wheel_diameter_m")
	}
	if c.DriveKs >= c.MaxBatteryVoltage {
		return goutils.NewConfigValidationError(path,
			errors.New("drive_ks must be less than max_battery_voltage"))
	}
	if c.Balance.PauseTicks < 0 {
		return goutils.NewConfigValidationError(path, errors.New("balance.pause_ticks may not be negative"))
	}
	return nil
}

// WheelOffsets returns the positions of the four wheels relative to the
// robot's center of rotation, ordered front left, front right, back left,
// back right. The offsets form a rectangle symmetric about the origin.
func (c *Drive) WheelOffsets() [4]r2.Point {
	x := c.WheelBaseM / 2
	y := c.TrackWidthM / 2
	return [4]r2.Point{
		{X: x, Y: y},
		{X: x, Y: -y},
		{X: -x, Y: y},
		{X: -x, Y: -y},
	}
}

// MaxSpeed returns the derated maximum speed of one module in m/s.
func (c *Drive) MaxSpeed() float64 {
	wheelCircumference := math.Pi * c.Module.WheelDiameterM
	return derating * c.Motor.FreeSpeedRPM / 60 / c.Module.DriveGearRatio * wheelCircumference
}

// MaxAcceleration returns the derated maximum acceleration of the robot in
// m/s^2, assuming all four drive motors at stall torque.
func (c *Drive) MaxAcceleration() float64 {
	wheelRadius := c.Module.WheelDiameterM / 2
	force := 4 * c.Motor.StallTorqueNm * c.Module.DriveGearRatio / wheelRadius
	return derating * force / c.RobotMassKg
}

// MaxRotationalSpeed returns the maximum angular speed of the chassis in
// rad/s, limited by the wheel furthest from the center of rotation.
func (c *Drive) MaxRotationalSpeed() float64 {
	return c.MaxSpeed() / math.Hypot(c.WheelBaseM/2, c.TrackWidthM/2)
}

// DriveKv returns the velocity feedforward constant in volt-seconds per
// meter: the voltage above kS needed per m/s of wheel speed.
func (c *Drive) DriveKv() float64 {
	return (c.MaxBatteryVoltage - c.DriveKs) / c.MaxSpeed()
}

// DriveKa returns the acceleration feedforward constant in volt-seconds
// squared per meter.
func (c *Drive) DriveKa() float64 {
	return (c.MaxBatteryVoltage - c.DriveKs) / c.MaxAcceleration()
}

// ReadConfig loads and validates a drive config from a JSON file.
func ReadConfig(path string) (*Drive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %q", path)
	}
	var cfg Drive
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %q", path)
	}
	if err := cfg.Validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Competition2023 returns the parameter set of the 2023 competition robot:
// an MK4 standard module with Falcon 500 motors.
func Competition2023() *Drive {
	return &Drive{
		RobotMassKg:       67.5853,
		WheelBaseM:        0.66802, // 26.3 in
		TrackWidthM:       0.4953,  // 19.5 in
		MaxBatteryVoltage: 12.0,
		Motor: Motor{
			FreeSpeedRPM:  6380,
			StallTorqueNm: 4.69,
		},
		Module: Module{
			DriveGearRatio:    8.14,
			SteeringGearRatio: 12.8,
			WheelDiameterM:    0.1016, // 4 in
		},
		DriveKs:    1.0,
		SteeringKs: 1.0,
		SteeringKp: 8.0,
		GravityKg:  1.9,
		Balance: Balance{
			ClimbSpeed:          0.3,
			MountedThresholdDeg: 5.0,
			BalanceThresholdDeg: 2.0,
			MinTiltRateDeg:      2.0,
			PauseTicks:          50,
		},
		Holonomic: Holonomic{
			XP:     1.0,
			YP:     1.0,
			ThetaP: 1.0,
		},
	}
}
