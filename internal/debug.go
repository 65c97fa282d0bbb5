package internal

import (
	"fmt"
	"os"
	"os/user"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/earthboundkid/versioninfo/v2"
	"go.uber.org/zap"
)

var sensitiveRegex = regexp.MustCompile(`(?i)(PASSWORD|API_KEY|ACCESS_KEY|SECRET|TOKEN)`)

func Version() string {
	return versioninfo.Short()
}

func ShowVersion(logger *zap.Logger) {
	logger.Info("starting", zap.String("version", Version()))
}

// EnvironmentVars returns the process environment sorted by key, with
// values of sensitive looking keys masked.
func EnvironmentVars(environ []string) [][2]string {
	vars := make([][2]string, 0, len(environ))
	for _, entry := range environ {
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			continue
		}
		if sensitiveRegex.MatchString(kv[0]) {
			kv[1] = "********"
		}
		vars = append(vars, [2]string{kv[0], kv[1]})
	}
	sort.Slice(vars, func(i, j int) bool {
		return vars[i][0] < vars[j][0]
	})
	return vars
}

func UserInfo(logger *zap.Logger) {
	logger = logger.With(zap.Int("pid", os.Getpid()))

	currentUser, err := user.Current()
	if err != nil {
		logger.Warn("error getting current user", zap.Error(err))
	} else {
		logger.Info("user",
			zap.String("uid", currentUser.Uid),
			zap.String("username", currentUser.Username),
			zap.String("gid", currentUser.Gid))
	}

	groups, err := os.Getgroups()
	if err != nil {
		logger.Warn("error getting groups", zap.Error(err))
		return
	}
	groupNames := make([]string, 0, len(groups))
	for _, gid := range groups {
		group, err := user.LookupGroupId(strconv.Itoa(gid))
		if err != nil {
			groupNames = append(groupNames, strconv.Itoa(gid)) // Append ID if name lookup fails
		} else {
			groupNames = append(groupNames, fmt.Sprintf("%s(%s)", group.Name, group.Gid))
		}
	}
	logger.Info("groups", zap.Strings("groups", groupNames))
}

func LogEnvironment(logger *zap.Logger) {
	logger.Debug("environment variables")
	for _, kv := range EnvironmentVars(os.Environ()) {
		logger.Debug("env", zap.String("key", kv[0]), zap.String("value", kv[1]))
	}
}
