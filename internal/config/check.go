package config

import "fmt"

// CheckParameters inspects the current values for inconsistencies and returns
// one warning string per finding. It never mutates the config and never
// aborts: a min bound exceeding its paired max is the host's problem to act
// on, not ours. Callers that want cross-field consistency must hold the
// config lock around the call.
func (c *Config) CheckParameters() []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	// Trajectory
	if c.Trajectory.MinSamples < 3 {
		warn("min_samples = %d: less than 3 samples cannot represent a transition, optimization may degrade", c.Trajectory.MinSamples)
	}
	if c.Trajectory.HumanMinSamples < 3 {
		warn("human_min_samples = %d: less than 3 samples cannot represent a transition", c.Trajectory.HumanMinSamples)
	}
	if c.Trajectory.DtRef <= 0 {
		warn("dt_ref = %g: temporal resolution must be positive", c.Trajectory.DtRef)
	}
	if c.Trajectory.DtHysteresis < 0 {
		warn("dt_hysteresis = %g: negative hysteresis is meaningless", c.Trajectory.DtHysteresis)
	}
	if c.Trajectory.DtRef > 0 && c.Trajectory.DtHysteresis > c.Trajectory.DtRef/2 {
		warn("dt_hysteresis = %g exceeds half of dt_ref = %g, auto-resize will oscillate", c.Trajectory.DtHysteresis, c.Trajectory.DtRef)
	}
	if c.Trajectory.HorizonReductionAmount <= 0 || c.Trajectory.HorizonReductionAmount >= 1 {
		warn("horizon_reduction_amount = %g: expected a fraction in (0, 1)", c.Trajectory.HorizonReductionAmount)
	}

	// Robot kinodynamics: paired min/max bounds
	if c.Robot.MinVelX > c.Robot.MaxVelX {
		warn("min_vel_x = %g exceeds max_vel_x = %g", c.Robot.MinVelX, c.Robot.MaxVelX)
	}
	if c.Robot.MinVelXBackwards > c.Robot.MaxVelXBackwards {
		warn("min_vel_x_backwards = %g exceeds max_vel_x_backwards = %g", c.Robot.MinVelXBackwards, c.Robot.MaxVelXBackwards)
	}
	if c.Robot.MinVelTheta > c.Robot.MaxVelTheta {
		warn("min_vel_theta = %g exceeds max_vel_theta = %g", c.Robot.MinVelTheta, c.Robot.MaxVelTheta)
	}
	if c.Robot.AccLimX <= 0 {
		warn("acc_lim_x = %g: acceleration limit must be positive", c.Robot.AccLimX)
	}
	if c.Robot.AccLimTheta <= 0 {
		warn("acc_lim_theta = %g: acceleration limit must be positive", c.Robot.AccLimTheta)
	}
	if c.Robot.MinTurningRadius < 0 {
		warn("min_turning_radius = %g: negative turning radius is meaningless", c.Robot.MinTurningRadius)
	}
	if c.Robot.CmdAngleInsteadRotvel && c.Robot.Wheelbase == 0 {
		warn("cmd_angle_instead_rotvel is set but wheelbase is zero; steering angles will be degenerate")
	}

	// Human kinodynamics
	if c.Human.MinVelX > c.Human.MaxVelX {
		warn("human.min_vel_x = %g exceeds human.max_vel_x = %g", c.Human.MinVelX, c.Human.MaxVelX)
	}
	if c.Human.NominalVelX > c.Human.MaxVelX {
		warn("human.nominal_vel_x = %g exceeds human.max_vel_x = %g", c.Human.NominalVelX, c.Human.MaxVelX)
	}
	if c.Human.Radius < 0 {
		warn("human.radius = %g: negative radius is meaningless", c.Human.Radius)
	}
	if c.Human.MinHumanRobotDist < c.Human.Radius {
		warn("min_human_robot_dist = %g is below human.radius = %g, separation cannot be enforced", c.Human.MinHumanRobotDist, c.Human.Radius)
	}
	if c.Human.MinHumanHumanDist < 2*c.Human.Radius {
		warn("min_human_human_dist = %g is below twice human.radius = %g", c.Human.MinHumanHumanDist, c.Human.Radius)
	}
	if c.Human.TTCThreshold <= 0 {
		warn("ttc_threshold = %g: non-positive thresholds disable the term implicitly; use the enable flag instead", c.Human.TTCThreshold)
	}

	// Goal tolerance
	if c.GoalTolerance.XYGoalTolerance <= 0 {
		warn("xy_goal_tolerance = %g: a non-positive tolerance is unreachable", c.GoalTolerance.XYGoalTolerance)
	}
	if c.GoalTolerance.YawGoalTolerance <= 0 {
		warn("yaw_goal_tolerance = %g: a non-positive tolerance is unreachable", c.GoalTolerance.YawGoalTolerance)
	}

	// Obstacles
	if c.Obstacles.MinObstacleDist <= 0 {
		warn("min_obstacle_dist = %g: clearance must be positive", c.Obstacles.MinObstacleDist)
	}
	if c.Obstacles.ObstaclePosesAffected < 1 {
		warn("obstacle_poses_affected = %d: at least one pose must be affected", c.Obstacles.ObstaclePosesAffected)
	}
	if c.Obstacles.CostmapConverterRate <= 0 && c.Obstacles.CostmapConverterPlugin != "" {
		warn("costmap_converter_rate = %d with a converter plugin configured: converter will never run", c.Obstacles.CostmapConverterRate)
	}

	// Optimization
	if c.Optimization.NoInnerIterations <= 0 {
		warn("no_inner_iterations = %d: iteration budget must be positive", c.Optimization.NoInnerIterations)
	}
	if c.Optimization.NoOuterIterations <= 0 {
		warn("no_outer_iterations = %d: iteration budget must be positive", c.Optimization.NoOuterIterations)
	}
	if c.Optimization.PenaltyEpsilon < 0 {
		warn("penalty_epsilon = %g: negative softening removes the safety margin", c.Optimization.PenaltyEpsilon)
	}
	if c.Optimization.DisableRapidOmegaChange && c.Optimization.OmegaChangeTimeSeparation <= 0 {
		warn("omega_change_time_seperation = %g with rapid omega suppression enabled: separation must be positive", c.Optimization.OmegaChangeTimeSeparation)
	}

	// Homotopy classes
	if c.HCP.MaxNumberClasses < 1 {
		warn("max_number_classes = %d: at least one class must be maintained", c.HCP.MaxNumberClasses)
	}
	if c.HCP.SelectionCostHysteresis <= 0 {
		warn("selection_cost_hysteresis = %g: non-positive hysteresis blocks every candidate switch", c.HCP.SelectionCostHysteresis)
	}
	if c.HCP.HSignaturePrescaler <= 0.2 || c.HCP.HSignaturePrescaler > 1 {
		warn("h_signature_prescaler = %g: expected (0.2, 1], obstacles may become indistinguishable", c.HCP.HSignaturePrescaler)
	}
	if c.HCP.HSignatureThreshold <= 0 {
		warn("h_signature_threshold = %g: non-positive threshold makes every signature distinct", c.HCP.HSignatureThreshold)
	}
	if c.HCP.RoadmapGraphNoSamples < 1 && !c.HCP.SimpleExploration {
		warn("roadmap_graph_no_samples = %d with roadmap exploration: no keypoints will be sampled", c.HCP.RoadmapGraphNoSamples)
	}
	if c.HCP.ObstacleHeadingThreshold < 0 || c.HCP.ObstacleHeadingThreshold > 1 {
		warn("obstacle_heading_threshold = %g: expected [0, 1]", c.HCP.ObstacleHeadingThreshold)
	}

	// Approach
	if c.PlanningMode == ModeApproach && c.Approach.Dist <= 0 {
		warn("approach_dist = %g with approach mode active: target offset must be positive", c.Approach.Dist)
	}

	return warnings
}

// deprecatedKeys maps retired parameter names to their replacements. Keys
// found here during a load are surfaced as warnings, never as errors.
var deprecatedKeys = map[string]string{
	"global_plan_via_point_sep":       "global_plan_viapoint_sep",
	"costmap_obstacles_front_only":    "costmap_obstacles_behind_robot_dist",
	"max_vel_y":                       "", // holonomic motion was removed
	"acc_lim_y":                       "",
	"alternative_time_cost":           "selection_alternative_time_cost",
	"weight_point_obstacle":           "weight_obstacle",
	"weight_poly_obstacle":            "weight_obstacle",
	"weight_line_obstacle":            "weight_obstacle",
	"line_obstacle_poses_affected":    "obstacle_poses_affected",
	"polygon_obstacle_poses_affected": "obstacle_poses_affected",
}

// CheckDeprecated scans a flat key set (as loaded from a config file or a
// reconfigure request) for retired parameter names.
func CheckDeprecated(keys []string) []string {
	var warnings []string
	for _, k := range keys {
		repl, ok := deprecatedKeys[k]
		if !ok {
			continue
		}
		if repl == "" {
			warnings = append(warnings, fmt.Sprintf("parameter %q is no longer supported and will be ignored", k))
		} else {
			warnings = append(warnings, fmt.Sprintf("parameter %q is deprecated, use %q instead", k, repl))
		}
	}
	return warnings
}
