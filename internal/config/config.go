// Package config holds the full parameter aggregate for the local planner:
// trajectory shaping, robot and human kinodynamics, goal tolerances, obstacle
// handling, optimization weights, homotopy-class exploration, visualization
// toggles and the docking approach sub-mode.
//
// The Config object is the only state shared between the planning thread and
// a reconfiguration source. All writes and any read spanning multiple fields
// must hold the config's own mutex (Lock/Unlock).
package config

import "sync"

// PlanningMode selects how humans are treated by the optimizer.
const (
	ModeVanilla    = 0 // humans are ordinary dynamic obstacles
	ModeHumanAware = 1 // human-safety cost terms active (default)
	ModeApproach   = 2 // docking-style approach toward a target human
)

// Trajectory groups the parameters that shape the optimized band itself.
type Trajectory struct {
	AutoResize                  bool    `json:"teb_autosize"`
	DtRef                       float64 `json:"dt_ref"`        // desired temporal resolution [s]
	DtHysteresis                float64 `json:"dt_hysteresis"` // usually ~10% of DtRef
	MinSamples                  int     `json:"min_samples"`   // always > 2
	HumanMinSamples             int     `json:"human_min_samples"`
	GlobalPlanOverwriteOrient   bool    `json:"global_plan_overwrite_orientation"`
	GlobalPlanViapointSep       float64 `json:"global_plan_viapoint_sep"` // negative disables
	ViaPointsOrdered            bool    `json:"via_points_ordered"`
	MaxGlobalPlanLookaheadDist  float64 `json:"max_global_plan_lookahead_dist"`
	ForceReinitNewGoalDist      float64 `json:"force_reinit_new_goal_dist"`
	FeasibilityCheckNoPoses     int     `json:"feasibility_check_no_poses"`
	PublishFeedback             bool    `json:"publish_feedback"`
	ShrinkHorizonBackup         bool    `json:"shrink_horizon_backup"`
	HorizonReductionAmount      float64 `json:"horizon_reduction_amount"`
	InitSkipDist                float64 `json:"teb_init_skip_dist"`
}

// Robot groups the robot's kinodynamic limits.
type Robot struct {
	MaxVelX               float64 `json:"max_vel_x"`
	MinVelX               float64 `json:"min_vel_x"`
	MaxVelXBackwards      float64 `json:"max_vel_x_backwards"`
	MinVelXBackwards      float64 `json:"min_vel_x_backwards"`
	MaxVelTheta           float64 `json:"max_vel_theta"`
	MinVelTheta           float64 `json:"min_vel_theta"`
	AccLimX               float64 `json:"acc_lim_x"`
	AccLimTheta           float64 `json:"acc_lim_theta"`
	MinTurningRadius      float64 `json:"min_turning_radius"` // zero for diff-drive
	Wheelbase             float64 `json:"wheelbase"`          // may be negative for back-wheeled robots
	CmdAngleInsteadRotvel bool    `json:"cmd_angle_instead_rotvel"`
}

// Human groups human kinodynamics and the human-safety thresholds.
type Human struct {
	Radius                  float64 `json:"radius"`
	MinHumanRobotDist       float64 `json:"min_human_robot_dist"`
	MinHumanHumanDist       float64 `json:"min_human_human_dist"`
	MaxVelX                 float64 `json:"max_vel_x"`
	MinVelX                 float64 `json:"min_vel_x"`
	NominalVelX             float64 `json:"nominal_vel_x"`
	MaxVelXBackwards        float64 `json:"max_vel_x_backwards"`
	MinVelXBackwards        float64 `json:"min_vel_x_backwards"`
	MaxVelTheta             float64 `json:"max_vel_theta"`
	MinVelTheta             float64 `json:"min_vel_theta"`
	AccLimX                 float64 `json:"acc_lim_x"`
	AccLimTheta             float64 `json:"acc_lim_theta"`
	UseExternalPrediction   bool    `json:"use_external_prediction"`
	PredictHumanBehindRobot bool    `json:"predict_human_behind_robot"`
	TTCThreshold            float64 `json:"ttc_threshold"`      // [s]
	TTCPlusThreshold        float64 `json:"ttcplus_threshold"`  // [s]
	TTClosestThreshold      float64 `json:"ttclosest_threshold"`
	TTCPlusTimer            float64 `json:"ttcplus_timer"`
	DirCostThreshold        float64 `json:"dir_cost_threshold"`
	VisibilityCostThreshold float64 `json:"visibility_cost_threshold"`
	PosePredictionResetTime float64 `json:"pose_prediction_reset_time"`
	FOV                     float64 `json:"fov"` // field of view [rad]
}

// GoalTolerance groups the terminal tolerances.
type GoalTolerance struct {
	YawGoalTolerance float64 `json:"yaw_goal_tolerance"`
	XYGoalTolerance  float64 `json:"xy_goal_tolerance"`
	FreeGoalVel      bool    `json:"free_goal_vel"`
}

// Obstacles groups static/costmap obstacle handling.
type Obstacles struct {
	MinObstacleDist                 float64 `json:"min_obstacle_dist"`
	UseNonlinearObstaclePenalty     bool    `json:"use_nonlinear_obstacle_penalty"`
	ObstacleCostMult                float64 `json:"obstacle_cost_mult"`
	IncludeCostmapObstacles         bool    `json:"include_costmap_obstacles"`
	CostmapObstaclesBehindRobotDist float64 `json:"costmap_obstacles_behind_robot_dist"`
	ObstaclePosesAffected           int     `json:"obstacle_poses_affected"`
	CostmapConverterPlugin          string  `json:"costmap_converter_plugin"`
	CostmapConverterSpinThread      bool    `json:"costmap_converter_spin_thread"`
	CostmapConverterRate            int     `json:"costmap_converter_rate"` // Hz
}

// Optimization groups the solver schedule and every cost-term weight and
// enable toggle. It is the single source of truth the optimizer queries each
// outer iteration; no weight is hard-coded anywhere else.
type Optimization struct {
	NoInnerIterations int  `json:"no_inner_iterations"`
	NoOuterIterations int  `json:"no_outer_iterations"`
	Activate          bool `json:"optimization_activate"`
	Verbose           bool `json:"optimization_verbose"`

	PenaltyEpsilon        float64 `json:"penalty_epsilon"`
	TimePenaltyEpsilon    float64 `json:"time_penalty_epsilon"`
	CapOptimalTimePenalty bool    `json:"cap_optimaltime_penalty"`

	WeightMaxVelX              float64 `json:"weight_max_vel_x"`
	WeightMaxHumanVelX         float64 `json:"weight_max_human_vel_x"`
	WeightNominalHumanVelX     float64 `json:"weight_nominal_human_vel_x"`
	WeightMaxVelTheta          float64 `json:"weight_max_vel_theta"`
	WeightMaxHumanVelTheta     float64 `json:"weight_max_human_vel_theta"`
	WeightAccLimX              float64 `json:"weight_acc_lim_x"`
	WeightHumanAccLimX         float64 `json:"weight_human_acc_lim_x"`
	WeightAccLimTheta          float64 `json:"weight_acc_lim_theta"`
	WeightHumanAccLimTheta     float64 `json:"weight_human_acc_lim_theta"`
	WeightKinematicsNH         float64 `json:"weight_kinematics_nh"`
	WeightKinematicsForward    float64 `json:"weight_kinematics_forward_drive"`
	WeightKinematicsTurning    float64 `json:"weight_kinematics_turning_radius"`
	WeightOptimalTime          float64 `json:"weight_optimaltime"`
	WeightHumanOptimalTime     float64 `json:"weight_human_optimaltime"`
	WeightObstacle             float64 `json:"weight_obstacle"`
	WeightDynamicObstacle      float64 `json:"weight_dynamic_obstacle"`
	WeightViapoint             float64 `json:"weight_viapoint"`
	WeightHumanViapoint        float64 `json:"weight_human_viapoint"`
	WeightHumanRobotSafety     float64 `json:"weight_human_robot_safety"`
	WeightHumanHumanSafety     float64 `json:"weight_human_human_safety"`
	WeightHumanRobotTTC        float64 `json:"weight_human_robot_ttc"`
	WeightHumanRobotTTCPlus    float64 `json:"weight_human_robot_ttcplus"`
	WeightHumanRobotTTClosest  float64 `json:"weight_human_robot_ttclosest"`
	WeightHumanRobotDir        float64 `json:"weight_human_robot_dir"`
	WeightHumanRobotVisibility float64 `json:"weight_human_robot_visibility"`

	HumanRobotTTCScaleAlpha     float64 `json:"human_robot_ttc_scale_alpha"`
	HumanRobotTTCPlusScaleAlpha float64 `json:"human_robot_ttcplus_scale_alpha"`

	UseHumanRobotSafety     bool `json:"use_human_robot_safety_c"`
	UseHumanHumanSafety     bool `json:"use_human_human_safety_c"`
	UseHumanRobotTTC        bool `json:"use_human_robot_ttc_c"`
	UseHumanRobotTTCPlus    bool `json:"use_human_robot_ttcplus_c"`
	UseHumanRobotTTClosest  bool `json:"use_human_robot_ttclosest_c"`
	ScaleHumanRobotTTC      bool `json:"scale_human_robot_ttc_c"`
	ScaleHumanRobotTTCPlus  bool `json:"scale_human_robot_ttcplus_c"`
	UseHumanRobotDir        bool `json:"use_human_robot_dir_c"`
	UseHumanRobotVisibility bool `json:"use_human_robot_visi_c"`
	UseHumanElasticVel      bool `json:"use_human_elastic_vel"`

	DisableWarmStart          bool    `json:"disable_warm_start"`
	DisableRapidOmegaChange   bool    `json:"disable_rapid_omega_change"`
	OmegaChangeTimeSeparation float64 `json:"omega_change_time_seperation"` // [s]
}

// HomotopyClasses groups multi-trajectory exploration.
type HomotopyClasses struct {
	Enabled                      bool    `json:"enable_homotopy_class_planning"`
	EnableMultithreading         bool    `json:"enable_multithreading"`
	SimpleExploration            bool    `json:"simple_exploration"`
	MaxNumberClasses             int     `json:"max_number_classes"`
	SelectionCostHysteresis      float64 `json:"selection_cost_hysteresis"`
	SelectionObstCostScale       float64 `json:"selection_obst_cost_scale"`
	SelectionViapointCostScale   float64 `json:"selection_viapoint_cost_scale"`
	SelectionAlternativeTimeCost bool    `json:"selection_alternative_time_cost"`
	RoadmapGraphNoSamples        int     `json:"roadmap_graph_no_samples"`
	RoadmapGraphAreaWidth        float64 `json:"roadmap_graph_area_width"` // [m]
	HSignaturePrescaler          float64 `json:"h_signature_prescaler"`    // (0.2, 1]
	HSignatureThreshold          float64 `json:"h_signature_threshold"`
	ObstacleKeypointOffset       float64 `json:"obstacle_keypoint_offset"`
	ObstacleHeadingThreshold     float64 `json:"obstacle_heading_threshold"` // [0,1]
	ViapointsAllCandidates       bool    `json:"viapoints_all_candidates"`
	VisualizeHCGraph             bool    `json:"visualize_hc_graph"`
}

// Visualization groups publish toggles for the visualization sink.
type Visualization struct {
	PublishRobotGlobalPlan       bool    `json:"publish_robot_global_plan"`
	PublishRobotLocalPlan        bool    `json:"publish_robot_local_plan"`
	PublishRobotLocalPlanPoses   bool    `json:"publish_robot_local_plan_poses"`
	PublishRobotLocalPlanFPPoses bool    `json:"publish_robot_local_plan_fp_poses"`
	PublishHumanGlobalPlans      bool    `json:"publish_human_global_plans"`
	PublishHumanLocalPlans       bool    `json:"publish_human_local_plans"`
	PublishHumanLocalPlanPoses   bool    `json:"publish_human_local_plan_poses"`
	PublishHumanLocalPlanFPPoses bool    `json:"publish_human_local_plan_fp_poses"`
	PoseArrayZScale              float64 `json:"pose_array_z_scale"`
}

// Approach groups the docking-style terminal behavior toward a target human.
type Approach struct {
	ID             int     `json:"approach_id"`
	Dist           float64 `json:"approach_dist"`
	Angle          float64 `json:"approach_angle"`
	DistTolerance  float64 `json:"approach_dist_tolerance"`
	AngleTolerance float64 `json:"approach_angle_tolerance"`
}

// Config is the full planner parameter aggregate. A single mutex owned by the
// Config serializes writes and cross-field reads; single-field reads of
// naturally aligned values used in isolation do not degrade correctness but
// any read feeding one cost computation must take the lock.
type Config struct {
	OdomTopic    string `json:"odom_topic"`
	MapFrame     string `json:"map_frame"`
	PlanningMode int    `json:"planning_mode"`

	Trajectory    Trajectory      `json:"trajectory"`
	Robot         Robot           `json:"robot"`
	Human         Human           `json:"human"`
	GoalTolerance GoalTolerance   `json:"goal_tolerance"`
	Obstacles     Obstacles       `json:"obstacles"`
	Optimization  Optimization    `json:"optimization"`
	HCP           HomotopyClasses `json:"hcp"`
	Visualization Visualization   `json:"visualization"`
	Approach      Approach        `json:"approach"`

	// mu is the lock object owned one-to-one by this Config. A pointer so
	// snapshots can be plain value copies; always non-nil for configs built
	// through Default().
	mu *sync.Mutex
}

// Lock acquires the config mutex.
func (c *Config) Lock() { c.mu.Lock() }

// Unlock releases the config mutex.
func (c *Config) Unlock() { c.mu.Unlock() }

// OptimalTimeWeight returns the time-optimality weight under the config lock.
// The per-planner copy the optimizer works with is taken through this
// accessor rather than a shared mutable field.
func (c *Config) OptimalTimeWeight() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Optimization.WeightOptimalTime
}

// SetOptimalTimeWeight updates the time-optimality weight under the lock.
func (c *Config) SetOptimalTimeWeight(w float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Optimization.WeightOptimalTime = w
}

// Snapshot returns a copy of every parameter group, taken atomically under
// the config lock. Planners take a snapshot once per outer iteration so a
// concurrent reconfigure can never tear a single cost computation.
func (c *Config) Snapshot() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Config{
		mu:            new(sync.Mutex),
		OdomTopic:     c.OdomTopic,
		MapFrame:      c.MapFrame,
		PlanningMode:  c.PlanningMode,
		Trajectory:    c.Trajectory,
		Robot:         c.Robot,
		Human:         c.Human,
		GoalTolerance: c.GoalTolerance,
		Obstacles:     c.Obstacles,
		Optimization:  c.Optimization,
		HCP:           c.HCP,
		Visualization: c.Visualization,
		Approach:      c.Approach,
	}
}

// Default returns a Config populated with the stock parameter set.
func Default() *Config {
	return &Config{
		mu:           new(sync.Mutex),
		OdomTopic:    "odom",
		MapFrame:     "odom",
		PlanningMode: ModeHumanAware,

		Trajectory: Trajectory{
			AutoResize:                 true,
			DtRef:                      0.3,
			DtHysteresis:               0.1,
			MinSamples:                 3,
			HumanMinSamples:            3,
			GlobalPlanOverwriteOrient:  true,
			GlobalPlanViapointSep:      -1,
			ViaPointsOrdered:           false,
			MaxGlobalPlanLookaheadDist: 1,
			ForceReinitNewGoalDist:     1,
			FeasibilityCheckNoPoses:    5,
			PublishFeedback:            false,
			ShrinkHorizonBackup:        true,
			HorizonReductionAmount:     0.5,
			InitSkipDist:               0.4,
		},

		Robot: Robot{
			MaxVelX:               0.4,
			MinVelX:               0.0,
			MaxVelXBackwards:      0.2,
			MinVelXBackwards:      0.0,
			MaxVelTheta:           0.3,
			MinVelTheta:           0.0,
			AccLimX:               0.5,
			AccLimTheta:           0.5,
			MinTurningRadius:      0,
			Wheelbase:             1.0,
			CmdAngleInsteadRotvel: false,
		},

		Human: Human{
			Radius:                  0.2,
			MinHumanRobotDist:       0.6,
			MinHumanHumanDist:       0.6,
			MaxVelX:                 1.1,
			NominalVelX:             0.8,
			MaxVelXBackwards:        0.0,
			MaxVelTheta:             1.1,
			AccLimX:                 0.6,
			AccLimTheta:             0.8,
			UseExternalPrediction:   false,
			PredictHumanBehindRobot: false,
			TTCThreshold:            5.0,
			TTCPlusThreshold:        5.0,
			TTClosestThreshold:      0.5,
			TTCPlusTimer:            5,
			PosePredictionResetTime: 2.0,
		},

		GoalTolerance: GoalTolerance{
			XYGoalTolerance:  0.2,
			YawGoalTolerance: 0.2,
			FreeGoalVel:      false,
		},

		Obstacles: Obstacles{
			MinObstacleDist:                0.5,
			UseNonlinearObstaclePenalty:    true,
			ObstacleCostMult:               1.0,
			IncludeCostmapObstacles:        true,
			CostmapObstaclesBehindRobotDist: 0.5,
			ObstaclePosesAffected:          25,
			CostmapConverterPlugin:         "",
			CostmapConverterSpinThread:     true,
			CostmapConverterRate:           5,
		},

		Optimization: Optimization{
			NoInnerIterations: 8,
			NoOuterIterations: 4,
			Activate:          true,
			Verbose:           false,

			PenaltyEpsilon:        0.1,
			TimePenaltyEpsilon:    0.1,
			CapOptimalTimePenalty: true,

			WeightMaxVelX:             1.0,
			WeightMaxHumanVelX:        2.0,
			WeightNominalHumanVelX:    2.0,
			WeightMaxVelTheta:         1.0,
			WeightMaxHumanVelTheta:    2.0,
			WeightAccLimX:             1,
			WeightHumanAccLimX:        1,
			WeightAccLimTheta:         1,
			WeightHumanAccLimTheta:    1,
			WeightKinematicsNH:        1000,
			WeightKinematicsForward:   1,
			WeightKinematicsTurning:   1,
			WeightOptimalTime:         1,
			WeightHumanOptimalTime:    1,
			WeightObstacle:            10,
			WeightDynamicObstacle:     10,
			WeightViapoint:            1,
			WeightHumanViapoint:       1,
			WeightHumanRobotSafety:    20,
			WeightHumanHumanSafety:    20,
			WeightHumanRobotTTC:       20,
			WeightHumanRobotTTCPlus:   20,
			WeightHumanRobotTTClosest: 10,
			WeightHumanRobotDir:       20,

			HumanRobotTTCScaleAlpha:     1,
			HumanRobotTTCPlusScaleAlpha: 1,

			UseHumanRobotSafety:     false,
			UseHumanHumanSafety:     true,
			UseHumanRobotTTC:        true,
			UseHumanRobotTTCPlus:    false,
			UseHumanRobotTTClosest:  true,
			ScaleHumanRobotTTC:      true,
			ScaleHumanRobotTTCPlus:  true,
			UseHumanRobotDir:        true,
			UseHumanRobotVisibility: false,
			UseHumanElasticVel:      true,

			DisableWarmStart:          false,
			DisableRapidOmegaChange:   true,
			OmegaChangeTimeSeparation: 1.0,
		},

		HCP: HomotopyClasses{
			Enabled:                      true,
			EnableMultithreading:         true,
			SimpleExploration:            false,
			MaxNumberClasses:             5,
			SelectionCostHysteresis:      1.0,
			SelectionObstCostScale:       100.0,
			SelectionViapointCostScale:   1.0,
			SelectionAlternativeTimeCost: false,
			ObstacleKeypointOffset:       0.1,
			ObstacleHeadingThreshold:     0.45,
			RoadmapGraphNoSamples:        15,
			RoadmapGraphAreaWidth:        6,
			HSignaturePrescaler:          1,
			HSignatureThreshold:          0.1,
			ViapointsAllCandidates:       true,
			VisualizeHCGraph:             false,
		},

		Visualization: Visualization{
			PublishRobotGlobalPlan:       true,
			PublishRobotLocalPlan:        true,
			PublishRobotLocalPlanPoses:   false,
			PublishRobotLocalPlanFPPoses: false,
			PublishHumanGlobalPlans:      false,
			PublishHumanLocalPlans:       true,
			PublishHumanLocalPlanPoses:   false,
			PublishHumanLocalPlanFPPoses: false,
			PoseArrayZScale:              1.0,
		},

		Approach: Approach{
			ID:             1,
			Dist:           0.5,
			Angle:          3.14,
			DistTolerance:  0.2,
			AngleTolerance: 0.3,
		},
	}
}
