package config

const (
	// DefaultContainerDir stands in for the shared app group container
	// (group.msg.booktracker) when running outside of it.
	DefaultContainerDir = "./group.msg.booktracker"

	DefaultCoversDir = "./covers"

	DefaultCloudContainerID = "iCloud.msg.onmir"
)
